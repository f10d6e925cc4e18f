package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/puzzle-box/internal/game"
	"github.com/sweeney/puzzle-box/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s game.State) string {
		if s == "" {
			return "UNKNOWN"
		}
		return string(s)
	},
	"stateClass": func(s game.State) string {
		switch s {
		case game.StatePuzzleSolving, game.StateCodeEntry:
			return "running"
		case game.StateWaitForStart:
			return "idle"
		case game.StateGameSuccess:
			return "success"
		case game.StateGameOver:
			return "failure"
		}
		return "unknown"
	},
	"seconds": func(d time.Duration) string {
		return fmt.Sprintf("%.1fs", d.Seconds())
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Puzzle Box</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.running { color: #06c; font-weight: bold; }
.idle { color: #888; }
.success { color: green; font-weight: bold; }
.failure { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Puzzle Box</h1>

<h2>Game</h2>
<table>
<tr><th>State</th><td id="game-state" class="{{stateClass .Game.State}}">{{stateOrUnknown .Game.State}}</td></tr>
{{if .Game.Round}}<tr><th>Round</th><td>{{.Game.Round}}</td></tr>{{end}}
<tr><th>Code step</th><td>{{.Game.Step}} / {{.Steps}}</td></tr>
<tr><th>Presses</th><td>{{range $i, $n := .Game.Presses}}{{if $i}} · {{end}}B{{$i}}: {{$n}}{{end}}</td></tr>
{{if .Game.Remaining}}<tr><th>Time left</th><td>{{seconds .Game.Remaining}}</td></tr>{{end}}
</table>

{{with .LastOutcome}}
<h2>Last Round</h2>
<table>
<tr><th>Outcome</th><td class="{{if eq .Type "GAME_SUCCESS"}}success{{else}}failure{{end}}">{{.Type}}</td></tr>
{{if .Reason}}<tr><th>Reason</th><td>{{.Reason}}</td></tr>{{end}}
{{if .Pulse}}<tr><th>Pulse</th><td>{{.Pulse}} bpm</td></tr>{{end}}
<tr><th>At</th><td>{{.Timestamp.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
</table>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Started</th><td>{{.Game.Counts.Started}}</td></tr>
<tr><th>Puzzles solved</th><td>{{.Game.Counts.Solved}}</td></tr>
<tr><th>Successes</th><td>{{.Game.Counts.Successes}}</td></tr>
<tr><th>Failures</th><td>{{.Game.Counts.Failures}}</td></tr>
<tr><th>Timeouts</th><td>{{.Game.Counts.Timeouts}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Steps  int
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Steps:    len(game.Sequence),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render: %v", err)
	}
}

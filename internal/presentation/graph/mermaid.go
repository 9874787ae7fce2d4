package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// GenerateMermaid produces a Mermaid flowchart from a patch's modules,
// connections and output-channel sinks.
// It applies semantic styling:
// - Generators (no audio-rate inputs): ((Circle))
// - Processors: [Rectangle]
// - Physical output channels: [/Parallelogram/]
// Audio connections render as solid arrows, control/gate/trigger as dotted,
// each labeled with "src_port -> dst_port".
func GenerateMermaid(mods []module.Module, conns []signal.Connection, sinks map[int]signal.PortRef) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, mod := range mods {
		safeID := sanitizeMermaidID(mod.Name())

		opener, closer := "[", "]"
		if isGenerator(mod) {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, mod.Name(), closer))
	}

	for _, conn := range conns {
		from := sanitizeMermaidID(conn.Source.Module)
		to := sanitizeMermaidID(conn.Destination.Module)
		label := fmt.Sprintf("%s -> %s", conn.Source.Port, conn.Destination.Port)

		arrow := fmt.Sprintf("-- \"%s\" -->", label)
		if conn.Type != signal.TypeAudio {
			arrow = fmt.Sprintf("-. \"%s\" .->", label)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, to))
	}

	// Channels in numeric order for stable output.
	channels := make([]int, 0, len(sinks))
	for ch := range sinks {
		channels = append(channels, ch)
	}
	sort.Ints(channels)
	for _, ch := range channels {
		src := sinks[ch]
		chID := fmt.Sprintf("out_ch_%d", ch)
		sb.WriteString(fmt.Sprintf("    %s[/\"channel %d\"/]\n", chID, ch))
		sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", sanitizeMermaidID(src.Module), src.Port, chID))
	}

	return sb.String()
}

// isGenerator reports whether a module originates signal rather than
// processing it. Modulation inputs (cv/gate/trigger) do not make a module a
// processor; consuming audio does.
func isGenerator(mod module.Module) bool {
	for _, p := range mod.Inputs() {
		if p.Type == signal.TypeAudio {
			return false
		}
	}
	return true
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner with the running version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Dusk gradient, top to bottom.
	lines := []struct {
		text  string
		color string
	}{
		{` __      __           __                        `, "#818cf8"},
		{`/  \    /  \_____   _/  |___________ ___________`, "#a78bfa"},
		{`\   \/\/   /\__  \  \   __\__  \_  _ \_  __ \__ \`, "#c084fc"},
		{` \        /  / __ \_|  |  / __ \|  | \/  | \/ __ \_`, "#e879f9"},
		{`  \__/\  /  (____  /|__| (____  /__|  |__| (____  /`, "#f472b6"},
		{`       \/        \/           \/                \/`, "#fb7185"},
	}

	fmt.Println()
	for _, l := range lines {
		fmt.Println(termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Println(termenv.String("  wayfarer " + v).Foreground(p.Color("#94a3b8")).Italic())
	}
	fmt.Println()
}

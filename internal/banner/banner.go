package banner

import (
	"trafficmix/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
  __              _________       _
 / /__________ _/ _/ _(_)___ ___(_)  __
/ __/ ___/ __ '/ /_/ /_/ / __ '__ \/ / |/_/
/ /_/ /  / /_/ / __/ __/ / / / / / / />  <
\__/_/   \__,_/_/ /_/ /_/_/ /_/ /_/_/_/|_|  `

	return "\n" + style.Render(ascii) + "\n"
}

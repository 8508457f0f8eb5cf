// Package viz draws a running crowd in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one scenario with a stats panel and speed chart
//   - [Canvas]: Braille-based pixel canvas with per-cell pen colors
//   - [Viewport]: maps world coordinates onto canvas dots
//
// # Key Bindings
//
//	Space  - Pause/Resume simulation
//	.      - Single step while paused
//	R      - Rebuild the scenario
//	A / D  - Add an agent / remove the newest one
//	Tab    - Select a force parameter
//	Up/Dn  - Scale the selected parameter by 5%
//	W      - Toggle waypoint rings
//	T      - Cycle color themes
//	?      - Show help overlay
package viz

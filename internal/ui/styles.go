// Package ui styles command output.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/keshon/bvc-subtree/internal/repo/meta"
)

var (
	ColorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorHash = lipgloss.AdaptiveColor{Light: "#fa8d3e", Dark: "#ffad66"}
)

var (
	PassStyle  = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle  = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMute)
	HashStyle  = lipgloss.NewStyle().Foreground(ColorHash)
	BoldStyle  = lipgloss.NewStyle().Bold(true)
)

func Pass(s string) string  { return PassStyle.Render(s) }
func Warn(s string) string  { return WarnStyle.Render(s) }
func Fail(s string) string  { return FailStyle.Render(s) }
func Muted(s string) string { return MutedStyle.Render(s) }
func Bold(s string) string  { return BoldStyle.Render(s) }

// Hash renders the short form of a commit id.
func Hash(id string) string { return HashStyle.Render(meta.ShortID(id)) }

// Warning prints a warning line to w.
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Warn("warning: "+fmt.Sprintf(format, args...)))
}

// Error prints an error line with its class to w.
func Error(w io.Writer, kind string, err error) {
	fmt.Fprintln(w, Fail(fmt.Sprintf("error (%s): %v", kind, err)))
}

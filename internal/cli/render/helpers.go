package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	addressStyle       = color.New(color.FgWhite)
	faintStyle         = color.New(color.Faint)
	identityStyle      = color.New(color.FgGreen, color.Bold)
	templateStyle      = color.New(color.FgCyan)
	sectionHeaderStyle = color.New(color.Bold, color.FgHiWhite)
	passStyle          = color.New(color.FgGreen)
	failStyle          = color.New(color.FgRed)
	warnStyle          = color.New(color.FgYellow)

	titleCaser = cases.Title(language.English)
)

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	// Extract just the error message part (after the last colon if it's an error chain)
	parts := strings.Split(message, ": ")
	msg := parts[len(parts)-1]

	// Capitalize first letter
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}

	return failStyle.Sprintf("❌ %s", msg)
}

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return warnStyle.Sprintf("⚠️  %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return passStyle.Sprintf("✅ %s", message)
}

// Title turns a mode or stage name such as production-fork into "Production Fork"
func Title(s string) string {
	return titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(s))
}

// JSON writes v indented
func JSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(header ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box.PaddingRight = "   "
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}

func formatAddress(addr common.Address) string {
	if addr == (common.Address{}) {
		return faintStyle.Sprint("-")
	}
	return addressStyle.Sprint(addr.Hex())
}

func status(passed bool) string {
	if passed {
		return passStyle.Sprint("✓")
	}
	return failStyle.Sprint("✗")
}

func printSection(out io.Writer, format string, args ...interface{}) {
	sectionHeaderStyle.Fprintf(out, format+"\n", args...)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

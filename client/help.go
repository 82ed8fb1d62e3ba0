package client

import (
	"fmt"
	"strings"
)

var debuggerCommands = [][2]string{
	{"h(elp)", "debugger help"},
	{"w(here)", "print the stack trace"},
	{"l(ist)", "list source around the current line"},
	{"n(ext)", "step over"},
	{"s(tep)", "step into"},
	{"r(eturn)", "continue until the current function returns"},
	{"c(ontinue)", "continue until the next breakpoint"},
	{"b(reak) [file:]line", "set a breakpoint"},
	{"cl(ear) [bpnumber]", "clear breakpoints"},
	{"p expr", "print an expression"},
	{"pp expr", "pretty-print an expression"},
	{"u(p) / d(own)", "move in the stack"},
	{"q(uit)", "end the debug session"},
}

// HelpText is the local help listing, shown without contacting the
// bridge.
func HelpText(exitCmd, helpCmd string) string {
	var b strings.Builder
	b.WriteString("Common debugger commands:\n")
	for _, c := range debuggerCommands {
		fmt.Fprintf(&b, "  %-22s %s\n", c[0], c[1])
	}
	b.WriteString("Client commands:\n")
	fmt.Fprintf(&b, "  %-22s %s\n", helpCmd, "show this help")
	fmt.Fprintf(&b, "  %-22s %s\n", exitCmd, "exit the client")
	return b.String()
}

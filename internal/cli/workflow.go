package cli

import (
	"fmt"
	"io"
	"strings"
)

var workflowEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// setFailed emits the workflow command that marks the step as failed with
// msg as the annotation.
func setFailed(w io.Writer, msg string) {
	fmt.Fprintf(w, "::error::%s\n", workflowEscaper.Replace(msg))
}

// group wraps body in a collapsible log group.
func group(w io.Writer, title, body string) {
	fmt.Fprintf(w, "::group::%s\n%s\n::endgroup::\n", workflowEscaper.Replace(title), body)
}

package prompt

import (
	"bytes"
	"os"
	"testing"
)

func pipeWith(t *testing.T, input string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	if _, err := w.WriteString(input); err != nil {
		t.Fatal(err)
	}
	w.Close()
	t.Cleanup(func() { r.Close() })
	return r
}

func TestTerminalPrompt_ReadsLineFromPipe(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain line", "abc123\n", "abc123"},
		{"windows line ending", "abc123\r\n", "abc123"},
		{"no trailing newline", "abc123", "abc123"},
		{"empty input", "\n", ""},
		{"eof", "", ""},
		{"only first line", "first\nsecond\n", "first"},
		{"inner spaces kept", " key with spaces \n", " key with spaces "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &TerminalPrompt{In: pipeWith(t, tt.input), Out: &out}

			got, err := p.Prompt("Enter GOOGLE_API_KEY: ")
			if err != nil {
				t.Fatalf("Prompt() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Prompt() = %q, want %q", got, tt.want)
			}
			if !bytes.Contains(out.Bytes(), []byte("Enter GOOGLE_API_KEY: ")) {
				t.Errorf("label not printed, got %q", out.String())
			}
			if bytes.Contains(out.Bytes(), []byte(tt.want)) && tt.want != "" {
				t.Errorf("secret was echoed to output: %q", out.String())
			}
		})
	}
}

func TestStatic(t *testing.T) {
	var p SecretPrompt = Static("abc123")
	got, err := p.Prompt("ignored")
	if err != nil || got != "abc123" {
		t.Errorf("Prompt() = (%q, %v)", got, err)
	}
}

package pathenv

import (
	"reflect"
	"testing"
)

const testLocalAppData = `C:\Users\Wraith\AppData\Local`

func TestSplitEntries(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{
			name:  "typical value",
			value: `C:\Windows;C:\Windows\System32;C:\tools`,
			want:  []string{`C:\Windows`, `C:\Windows\System32`, `C:\tools`},
		},
		{
			name:  "empty segments dropped",
			value: `C:\Windows;;C:\tools;`,
			want:  []string{`C:\Windows`, `C:\tools`},
		},
		{
			name:  "whitespace-only segments dropped",
			value: `  ; C:\tools ;   `,
			want:  []string{`C:\tools`},
		},
		{
			name:  "empty value",
			value: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitEntries(tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitEntries(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestJoinEntriesRoundTrip(t *testing.T) {
	entries := []string{`C:\Windows`, `C:\Windows\System32`, `"C:\Program Files\tool"`}
	joined := JoinEntries(entries)
	if got := SplitEntries(joined); !reflect.DeepEqual(got, entries) {
		t.Errorf("SplitEntries(JoinEntries(%v)) = %v", entries, got)
	}
}

func TestNormalizeEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  string
	}{
		{"plain path lowercased", `C:\Tools\Bin`, `c:\tools\bin`},
		{"forward slashes", `C:/Tools/Bin`, `c:\tools\bin`},
		{"surrounding quotes", `"C:\Tools\Bin"`, `c:\tools\bin`},
		{"quotes then whitespace", ` " C:\Tools\Bin " `, `c:\tools\bin`},
		{"trailing backslash stripped", `C:\Tools\Bin\`, `c:\tools\bin`},
		{"drive root keeps separator", `C:\`, `c:\`},
		{"bare drive untouched", `C:`, `c:`},
		{
			"localappdata token expanded",
			`%LOCALAPPDATA%\tinythis\bin`,
			`c:\users\wraith\appdata\local\tinythis\bin`,
		},
		{
			"token expansion is case-insensitive",
			`%LocalAppData%\tinythis\bin`,
			`c:\users\wraith\appdata\local\tinythis\bin`,
		},
		{"empty entry", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeEntry(tt.entry, testLocalAppData); got != tt.want {
				t.Errorf("normalizeEntry(%q) = %q, want %q", tt.entry, got, tt.want)
			}
		})
	}
}

func TestNormalizedEquivalence(t *testing.T) {
	expanded := testLocalAppData + `\tinythis\bin`
	variants := []string{
		expanded,
		`%LOCALAPPDATA%\tinythis\bin`,
		`"%localappdata%\tinythis\bin"`,
		`C:/Users/Wraith/AppData/Local/tinythis/bin/`,
		`C:\USERS\WRAITH\APPDATA\LOCAL\TINYTHIS\BIN`,
	}

	want := normalizeEntry(expanded, testLocalAppData)
	for _, v := range variants {
		if got := normalizeEntry(v, testLocalAppData); got != want {
			t.Errorf("normalizeEntry(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestAppendEntry(t *testing.T) {
	entries := []string{`C:\Windows`, `C:\Windows\System32`}

	out, added := appendEntry(entries, `%LOCALAPPDATA%\tinythis\bin`, testLocalAppData)
	if !added {
		t.Fatal("appendEntry reported no change for a new entry")
	}
	if len(out) != 3 || out[2] != `%LOCALAPPDATA%\tinythis\bin` {
		t.Errorf("appendEntry result = %v", out)
	}

	// Appending an equivalent spelling is a no-op.
	again, added := appendEntry(out, testLocalAppData+`\tinythis\bin\`, testLocalAppData)
	if added {
		t.Error("appendEntry added a duplicate of an equivalent entry")
	}
	if !reflect.DeepEqual(again, out) {
		t.Errorf("appendEntry mutated entries: %v", again)
	}
}

func TestDropEntry(t *testing.T) {
	entries := []string{
		`C:\Windows`,
		`%LOCALAPPDATA%\tinythis\bin`,
		`C:\tools`,
		testLocalAppData + `\tinythis\bin\`,
	}

	out, removed := dropEntry(entries, testLocalAppData+`\tinythis\bin`, testLocalAppData)
	if !removed {
		t.Fatal("dropEntry reported no change")
	}
	want := []string{`C:\Windows`, `C:\tools`}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("dropEntry result = %v, want %v", out, want)
	}

	out, removed = dropEntry(want, `C:\absent`, testLocalAppData)
	if removed {
		t.Error("dropEntry reported removal of an absent entry")
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("dropEntry changed entries: %v", out)
	}
}

func TestEntriesContain(t *testing.T) {
	entries := []string{`C:\Windows`, `%LOCALAPPDATA%\tinythis\bin`}

	if !entriesContain(entries, testLocalAppData+`\tinythis\bin`, testLocalAppData) {
		t.Error("expanded spelling not matched against token entry")
	}
	if entriesContain(entries, `C:\tools`, testLocalAppData) {
		t.Error("absent entry reported present")
	}
}

func TestReplaceFold(t *testing.T) {
	tests := []struct {
		s, needle, repl, want string
	}{
		{`%LOCALAPPDATA%\bin`, `%LOCALAPPDATA%`, `C:\L`, `C:\L\bin`},
		{`%LocalAppData%\bin`, `%LOCALAPPDATA%`, `C:\L`, `C:\L\bin`},
		{`a%X%b%x%c`, `%X%`, `-`, `a-b-c`},
		{`no token here`, `%LOCALAPPDATA%`, `C:\L`, `no token here`},
	}

	for _, tt := range tests {
		if got := replaceFold(tt.s, tt.needle, tt.repl); got != tt.want {
			t.Errorf("replaceFold(%q, %q, %q) = %q, want %q", tt.s, tt.needle, tt.repl, got, tt.want)
		}
	}
}

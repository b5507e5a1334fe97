package generation

import (
	"strings"
	"testing"
)

func TestExtractSource(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		field   string
		want    string
		wantErr string
	}{
		{
			name: "plain object",
			raw:  `{"code":"export default function App(){return null;}"}`,
			want: "export default function App(){return null;}",
		},
		{
			name:  "custom field with trailing zero width space",
			raw:   "{\"field\":\"export default function App(){return null;}\"}\u200b",
			field: "field",
			want:  "export default function App(){return null;}",
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"code\":\"const A = 1;\"}\n```",
			want: "const A = 1;",
		},
		{
			name: "fenced code inside field",
			raw:  `{"code":"Here you go:\n` + "```jsx\\nexport default function App(){}\\n```" + `"}`,
			want: "export default function App(){}",
		},
		{
			name: "prose before module statement",
			raw:  `{"code":"Sure! Below is the component.\nimport React from 'react';\nexport default function App(){}"}`,
			want: "import React from 'react';\nexport default function App(){}",
		},
		{name: "empty", raw: "  \u200b ", wantErr: "empty output"},
		{name: "not json", raw: "export default 1", wantErr: "not a JSON object"},
		{name: "missing field", raw: `{"source":"x"}`, wantErr: `no "code" field`},
		{name: "blank field", raw: `{"code":"   "}`, wantErr: "is empty"},
		{name: "non string field", raw: `{"code":42}`, wantErr: "not a string"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractSource(tc.raw, tc.field)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("ExtractSource error = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractSource error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ExtractSource = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeCodeFallsBackToTrimmedText(t *testing.T) {
	got := NormalizeCode("  <div>hello</div>  ")
	if got != "<div>hello</div>" {
		t.Fatalf("NormalizeCode = %q", got)
	}
}

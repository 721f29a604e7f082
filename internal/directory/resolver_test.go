package directory

import "testing"

func TestParseFingerOutput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		output string
		want   []Entry
	}{
		{
			name:   "single_entry",
			output: "Login: jperez\t\t\tName: Jose Perez\nDirectory: /home/jperez\tShell: /bin/bash\n",
			want:   []Entry{{Login: "jperez", DisplayName: "Jose Perez"}},
		},
		{
			name: "multiple_entries",
			output: "Login: jperez\t\t\tName: Jose Perez\n" +
				"Login: j.perez.gomez\t\tName: Jose Perez Gomez\n",
			want: []Entry{
				{Login: "jperez", DisplayName: "Jose Perez"},
				{Login: "j.perez.gomez", DisplayName: "Jose Perez Gomez"},
			},
		},
		{
			name:   "no_matching_lines",
			output: "finger: nobody: no such user.\n",
			want:   nil,
		},
		{
			name:   "empty_output",
			output: "",
			want:   nil,
		},
		{
			name:   "login_without_name_ignored",
			output: "Login: jperez\n",
			want:   nil,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := parseFingerOutput(tc.output)
			if len(got) != len(tc.want) {
				t.Fatalf("len(entries) = %d, want %d (%#v)", len(got), len(tc.want), got)
			}
			for i, want := range tc.want {
				if got[i] != want {
					t.Fatalf("entries[%d] = %#v, want %#v", i, got[i], want)
				}
			}
		})
	}
}

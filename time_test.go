package vault

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/vault/errors"
)

func TestUnixTimeUnmarshal(t *testing.T) {
	cases := map[string]struct {
		raw      string
		wantTime UnixTime
		wantErr  *errors.Error
	}{
		"zero time as number": {
			raw:      "0",
			wantTime: 0,
		},
		"a number": {
			raw:      "1574432000",
			wantTime: 1574432000,
		},
		"negative number": {
			raw:     "-4",
			wantErr: errors.ErrInput,
		},
		"time as string": {
			raw:      `"2019-11-22T14:13:20Z"`,
			wantTime: 1574432000,
		},
		"before epoch as string": {
			raw:     `"1900-01-01T00:00:00Z"`,
			wantErr: errors.ErrInput,
		},
		"garbage": {
			raw:     `"yesterday"`,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got UnixTime
			err := json.Unmarshal([]byte(tc.raw), &got)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("want %q error, got %+v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if got != tc.wantTime {
				t.Fatalf("want %d, got %d", tc.wantTime, got)
			}
		})
	}
}

func TestUnixTimeAdd(t *testing.T) {
	base := UnixTime(1000)
	if got := base.Add(3 * time.Minute); got != 1180 {
		t.Fatalf("want 1180, got %d", got)
	}
	if got := base.Add(-time.Second); got != 999 {
		t.Fatalf("want 999, got %d", got)
	}
	if got := base.Add(500 * time.Millisecond); got != base {
		t.Fatalf("sub second precision must be dropped, got %d", got)
	}
}

func TestUnixTimeValidate(t *testing.T) {
	if err := UnixTime(1).Validate(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := UnixTime(-1).Validate(); !errors.ErrState.Is(err) {
		t.Fatalf("want state error, got %v", err)
	}
}

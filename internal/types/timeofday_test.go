package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "08:00:00", want: TimeOfDay{Hour: 8}},
		{in: "19:30:15", want: TimeOfDay{Hour: 19, Minute: 30, Second: 15}},
		{in: "00:00:00", want: TimeOfDay{}},
		{in: "23:59:59", want: TimeOfDay{Hour: 23, Minute: 59, Second: 59}},
		{in: "07:45", want: TimeOfDay{Hour: 7, Minute: 45}},
		{in: "24:00:00", wantErr: true},
		{in: "12:60:00", wantErr: true},
		{in: "8:00:00", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimeOfDay(%q) expected error, got %v", tt.in, got)
				}
				if code := ErrorCodeOf(err); code != ErrCodeValidationInvalidRecurrence {
					t.Errorf("error code = %q, want %q", code, ErrCodeValidationInvalidRecurrence)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeOfDay_On(t *testing.T) {
	tod := TimeOfDay{Hour: 9, Minute: 15}
	day := time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC)

	got := tod.On(day, time.UTC)
	want := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("On() = %v, want %v", got, want)
	}
}

func TestTimeOfDay_DurationRoundTrip(t *testing.T) {
	tod := TimeOfDay{Hour: 13, Minute: 5, Second: 9}
	if got := TimeOfDayFromDuration(tod.Duration()); got != tod {
		t.Errorf("round trip = %+v, want %+v", got, tod)
	}
}

func TestTimeOfDay_JSON(t *testing.T) {
	data, err := json.Marshal(TimeOfDay{Hour: 7})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"07:00:00"` {
		t.Errorf("Marshal = %s", data)
	}

	var tod TimeOfDay
	if err := json.Unmarshal([]byte(`"18:30:00"`), &tod); err != nil {
		t.Fatal(err)
	}
	if tod != (TimeOfDay{Hour: 18, Minute: 30}) {
		t.Errorf("Unmarshal = %+v", tod)
	}

	if err := json.Unmarshal([]byte(`"25:00:00"`), &tod); err == nil {
		t.Error("expected error for out-of-range hour")
	}
}

func TestTimeOfDay_Scan(t *testing.T) {
	var tod TimeOfDay
	if err := tod.Scan([]byte("06:10:00")); err != nil {
		t.Fatal(err)
	}
	if tod != (TimeOfDay{Hour: 6, Minute: 10}) {
		t.Errorf("Scan = %+v", tod)
	}
	if err := tod.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
	v, _ := tod.Value()
	if v != "06:10:00" {
		t.Errorf("Value() = %v", v)
	}
}

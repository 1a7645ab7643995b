package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingSlot(t *testing.T) {
	tests := []struct {
		name         string
		hour         string
		duration     int
		wantStart    int
		wantDuration int
		wantErr      bool
	}{
		{name: "plain", hour: "9", duration: 2, wantStart: 9, wantDuration: 2},
		{name: "padded", hour: "09", duration: 1, wantStart: 9, wantDuration: 1},
		{name: "zero duration clamps to one", hour: "14", duration: 0, wantStart: 14, wantDuration: 1},
		{name: "malformed hour", hour: "nine", duration: 1, wantErr: true},
		{name: "empty hour", hour: "", duration: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Hour: tt.hour, Duration: tt.duration}
			start, duration, err := b.Slot()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantDuration, duration)
		})
	}
}

func TestBookingEndHour(t *testing.T) {
	b := &Booking{Hour: "23", Duration: 2}
	end, err := b.EndHour()
	require.NoError(t, err)
	assert.Equal(t, 25, end)
}

func TestBookingLabel(t *testing.T) {
	assert.Equal(t, "20250001 Kim", (&Booking{LeaderName: "Kim", LeaderID: "20250001"}).Label())
	assert.Equal(t, "20250001", (&Booking{LeaderID: "20250001"}).Label())
	assert.Equal(t, "20250001", (&Booking{LeaderName: "20250001", LeaderID: "20250001"}).Label())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedFileName(t *testing.T) {
	tests := []struct {
		name     string
		original string
		want     string
	}{
		{name: "jpg kept", original: "holiday.jpg", want: "compressed-holiday.jpg"},
		{name: "jpeg kept case insensitive", original: "IMG_0001.JPEG", want: "compressed-IMG_0001.JPEG"},
		{name: "png gets jpg appended", original: "scan.png", want: "compressed-scan.png.jpg"},
		{name: "whitespace collapsed to dash", original: "my  summer\tphoto.jpg", want: "compressed-my-summer-photo.jpg"},
		{name: "unsafe characters dropped", original: "grüße (1).jpg", want: "compressed-gre-1.jpg"},
		{name: "empty name", original: "", want: "compressed-image.jpg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CompressedFileName(tc.original))
		})
	}
}

func TestParseTargetKB(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "lower bound", input: "10", want: 10},
		{name: "upper bound", input: "10240", want: 10240},
		{name: "surrounding space", input: " 250 ", want: 250},
		{name: "below range", input: "9", wantErr: true},
		{name: "above range", input: "10241", wantErr: true},
		{name: "not a number", input: "big", wantErr: true},
		{name: "fraction", input: "12.5", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kb, err := ParseTargetKB(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, kb)
		})
	}
}

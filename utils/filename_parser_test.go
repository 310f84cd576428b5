package utils

import "testing"

func TestParseDishPhotoName(t *testing.T) {
	tests := []struct {
		name    string
		want    int64
		wantErr bool
	}{
		{name: "12.jpg", want: 12},
		{name: "12_syrniki.JPG", want: 12},
		{name: "7-borsch.png", want: 7},
		{name: "105 steak.jpeg", want: 105},
		{name: "syrniki.jpg", wantErr: true},
		{name: "12_syrniki.gif", wantErr: true},
		{name: "0.jpg", wantErr: true},
		{name: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDishPhotoName(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got id %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

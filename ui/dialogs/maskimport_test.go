package dialogs

import (
	"testing"

	"seg-editor/internal/maskimport"
)

func TestParseMaskOptions(t *testing.T) {
	base := maskimport.DefaultOptions()

	tests := []struct {
		name                         string
		threshold, minArea, simplify string
		want                         maskimport.Options
	}{
		{
			name:      "all fields",
			threshold: "50", minArea: "12.5", simplify: "1",
			want: maskimport.Options{Threshold: 50, MinArea: 12.5, Simplify: 1},
		},
		{
			name:      "bad fields keep base",
			threshold: "300", minArea: "x", simplify: "-2",
			want: base,
		},
		{
			name:      "blank",
			want: base,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMaskOptions(base, tt.threshold, tt.minArea, tt.simplify)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOptionsBeforeShow(t *testing.T) {
	opts := maskimport.Options{Threshold: 10, MinArea: 5}
	d := NewMaskImportDialog(nil, opts, nil, nil)
	if got := d.Options(); got != opts {
		t.Errorf("Options() = %+v, want %+v", got, opts)
	}
}

package tab

import (
	"reflect"
	"testing"
)

func TestScanLineFrets(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Token
	}{
		{
			name: "single fret",
			line: "--3--",
			want: []Token{{Value: "3", Start: 2, End: 2}},
		},
		{
			name: "multi-digit fret stays one token",
			line: "--12--",
			want: []Token{{Value: "12", Start: 2, End: 3}},
		},
		{
			name: "several frets",
			line: "-3--5--7-",
			want: []Token{
				{Value: "3", Start: 1, End: 1},
				{Value: "5", Start: 4, End: 4},
				{Value: "7", Start: 7, End: 7},
			},
		},
		{
			name: "open string at column zero",
			line: "0--12",
			want: []Token{
				{Value: "0", Start: 0, End: 0},
				{Value: "12", Start: 3, End: 4},
			},
		},
		{
			name: "rests only",
			line: "--------",
			want: nil,
		},
		{
			name: "empty line",
			line: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanLine(tt.line, false)
			if err != nil {
				t.Fatalf("ScanLine(%q) error: %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ScanLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestScanLineTechniques(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Token
	}{
		{
			name: "hammer-on between frets",
			line: "-3h5-",
			want: []Token{
				{Value: "3", Start: 1, End: 1},
				{Value: "h", Start: 2, End: 2},
				{Value: "5", Start: 3, End: 3},
			},
		},
		{
			name: "slide",
			line: "3/5--",
			want: []Token{
				{Value: "3", Start: 0, End: 0},
				{Value: "/", Start: 1, End: 1},
				{Value: "5", Start: 2, End: 2},
			},
		},
		{
			name: "plus runs are dropped",
			line: "-3+5-",
			want: []Token{
				{Value: "3", Start: 1, End: 1},
				{Value: "5", Start: 3, End: 3},
			},
		},
		{
			name: "technique run is one token",
			line: "--~~~--",
			want: []Token{{Value: "~~~", Start: 2, End: 4}},
		},
		{
			name: "mixed markers keep column order",
			line: "x2-3b",
			want: []Token{
				{Value: "x", Start: 0, End: 0},
				{Value: "2", Start: 1, End: 1},
				{Value: "3", Start: 3, End: 3},
				{Value: "b", Start: 4, End: 4},
			},
		},
		{
			name: "interior space is a technique token",
			line: "3 5",
			want: []Token{
				{Value: "3", Start: 0, End: 0},
				{Value: " ", Start: 1, End: 1},
				{Value: "5", Start: 2, End: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanLine(tt.line, true)
			if err != nil {
				t.Fatalf("ScanLine(%q) error: %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ScanLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestScanLineTechniquesDisabled(t *testing.T) {
	got, err := ScanLine("-3h5~-", false)
	if err != nil {
		t.Fatalf("ScanLine error: %v", err)
	}
	want := []Token{
		{Value: "3", Start: 1, End: 1},
		{Value: "5", Start: 3, End: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ScanLine techniques off = %v, want %v", got, want)
	}
}

func TestTokenWidth(t *testing.T) {
	tests := []struct {
		tok  Token
		want int
	}{
		{Token{Value: "3", Start: 2, End: 2}, 1},
		{Token{Value: "12", Start: 2, End: 3}, 2},
		{Token{Value: "~~~", Start: 0, End: 2}, 3},
	}
	for _, tt := range tests {
		if got := tt.tok.Width(); got != tt.want {
			t.Errorf("Width(%q) = %d, want %d", tt.tok.Value, got, tt.want)
		}
	}
}

func TestTokenNumeric(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"0", true},
		{"12", true},
		{"h", false},
		{"~~~", false},
		{"3b", false},
		{"", false},
	}
	for _, tt := range tests {
		tok := Token{Value: tt.value}
		if got := tok.Numeric(); got != tt.want {
			t.Errorf("Numeric(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

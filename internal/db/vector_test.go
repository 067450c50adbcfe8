package db

import "testing"

func TestVectorLiteral(t *testing.T) {
	got := VectorLiteral([]float32{0.5, -1, 2.25})
	want := "[0.5,-1,2.25]"
	if got != want {
		t.Fatalf("VectorLiteral = %q, want %q", got, want)
	}
}

func TestVectorLiteral_Empty(t *testing.T) {
	if got := VectorLiteral(nil); got != "[]" {
		t.Fatalf("VectorLiteral(nil) = %q, want []", got)
	}
}

func TestVectorArrayLiteral(t *testing.T) {
	got := VectorArrayLiteral([][]float32{{1, 2}, {3, 4}})
	want := `{"[1,2]","[3,4]"}`
	if got != want {
		t.Fatalf("VectorArrayLiteral = %q, want %q", got, want)
	}
}

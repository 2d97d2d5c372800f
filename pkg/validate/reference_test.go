package validate

import (
	"testing"

	"github.com/ShiraazMoollatjie/goluhn"
	"github.com/stretchr/testify/assert"
)

func TestIsReference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Valid reference", input: "2404815702", expected: true},
		{name: "Bad check digit", input: "2404815703", expected: false},
		{name: "Too short", input: "79927398713"[:5], expected: false},
		{name: "Letters", input: "24048157a2", expected: false},
		{name: "Empty", input: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsReference(tt.input))
		})
	}
}

func TestIsReference_Generated(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.True(t, IsReference(goluhn.Generate(ReferenceLength)))
	}
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSkills(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"go, rust , c++", []string{"go", "rust", "c++"}},
		{"", []string{}},
		{" , ,", []string{}},
		{"solo", []string{"solo"}},
		{"b,a,b", []string{"b", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSkills(tt.in))
		})
	}
}

func TestNormalizeSkills_NeverNil(t *testing.T) {
	assert.NotNil(t, NormalizeSkills(nil))
}

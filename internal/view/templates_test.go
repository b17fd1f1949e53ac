package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eresidence/eresidence/internal/authz"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(authz.NewRulesetHolder(nil))
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

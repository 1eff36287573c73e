package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Configuration {
	return &Configuration{
		Name: "peak-finder",
		Fields: []FieldDescriptor{
			{Name: "threshold", Type: FieldFloat, Direction: DirInput, Initial: 0.5,
				Bounds: &Bounds{Min: 0, Max: 1, Step: 0.01, Precision: 2}},
			{Name: "peaks", Type: FieldInt, Direction: DirOutput},
			{Name: "clear", Type: FieldButton, Direction: DirInput, Callback: func() {}},
		},
		SeriesNames: []string{"Peaks", "Baseline"},
		GraphType:   GraphLine,
		Streaming:   true,
		Blocking:    BlockingPlugin,
	}
}

func TestConfigurationValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestConfigurationValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"missing name", func(c *Configuration) { c.Name = "" }},
		{"duplicate series", func(c *Configuration) { c.SeriesNames = []string{"Foo", "Foo"} }},
		{"empty series name", func(c *Configuration) { c.SeriesNames = []string{""} }},
		{"duplicate field", func(c *Configuration) {
			c.Fields = append(c.Fields, FieldDescriptor{Name: "threshold", Type: FieldBool, Direction: DirInput})
		}},
		{"button without callback", func(c *Configuration) {
			c.Fields = []FieldDescriptor{{Name: "go", Type: FieldButton, Direction: DirInput}}
		}},
		{"button as output", func(c *Configuration) {
			c.Fields = []FieldDescriptor{{Name: "go", Type: FieldButton, Direction: DirOutput, Callback: func() {}}}
		}},
		{"bounds on string field", func(c *Configuration) {
			c.Fields = []FieldDescriptor{{Name: "label", Type: FieldString, Direction: DirInput, Bounds: &Bounds{}}}
		}},
		{"callback on non-button", func(c *Configuration) {
			c.Fields = []FieldDescriptor{{Name: "x", Type: FieldFloat, Direction: DirInput, Callback: func() {}}}
		}},
		{"unknown blocking mode", func(c *Configuration) { c.Blocking = BlockingMode("sometimes") }},
		{"unknown field type", func(c *Configuration) {
			c.Fields = []FieldDescriptor{{Name: "x", Type: FieldType("pandas"), Direction: DirOutput}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigurationHelpers(t *testing.T) {
	cfg := validConfig()
	cfg.EventNames = []string{"save"}

	assert.True(t, cfg.DeclaresSeries("Peaks"))
	assert.False(t, cfg.DeclaresSeries("Undeclared"))
	assert.Equal(t, []string{"peaks"}, cfg.OutputFields())
	assert.True(t, cfg.WantsEvent("save"))
	assert.False(t, cfg.WantsEvent("load"))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register("a", func() Plugin { return nil }))
	require.NoError(t, reg.Register("b", func() Plugin { return nil }))

	assert.Error(t, reg.Register("a", func() Plugin { return nil }), "duplicate names are rejected")
	assert.Error(t, reg.Register("", func() Plugin { return nil }))
	assert.Error(t, reg.Register("c", nil))

	assert.Equal(t, []string{"a", "b"}, reg.Names())

	_, err := reg.New("missing")
	assert.Error(t, err)
}

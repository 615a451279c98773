package pipeline

import (
	"github.com/taoyuan/witty/config"
)

// Plan is the compiled middleware configuration.
type Plan struct {
	// Phases lists base phase names in declared order, with adjacent
	// duplicates collapsed.
	Phases []string
	// Middleware lists one instruction per configured middleware, in
	// declared order.
	Middleware []Instruction
}

// Instruction installs one middleware.
type Instruction struct {
	SourceFile string
	Fragment   string
	// Config is a private copy of the configured value with "phase" set.
	Config *config.Tree
}

// Reference renders the instruction's location in reference syntax.
func (in Instruction) Reference() string {
	if in.Fragment == "" {
		return in.SourceFile
	}
	return in.SourceFile + "#" + in.Fragment
}

// Phase returns the phase the instruction installs into.
func (in Instruction) Phase() string {
	v, _ := in.Config.Get("phase")
	s, _ := v.(string)
	return s
}

package engine

import (
	"regexp"
	"slices"
)

// Runnable is a line that can be run, with the template variables captured
// for it. Vars always holds "file".
type Runnable struct {
	Line int               `json:"line"`
	Vars map[string]string `json:"vars"`
}

// Runnables returns the runnable lines ordered by line. Executable
// languages make line 0 runnable; the grammar's runnables query adds test
// functions and the like.
func (d *Document) Runnables() []Runnable {
	var out []Runnable
	if d.config != nil && d.config.Executable {
		out = append(out, Runnable{Line: 0, Vars: map[string]string{"file": d.filename}})
	}
	for _, r := range d.index.Runnables() {
		if len(out) > 0 && out[0].Line == r.Line {
			for k, v := range r.Vars {
				out[0].Vars[k] = v
			}
			continue
		}
		vars := map[string]string{"file": d.filename}
		for k, v := range r.Vars {
			vars[k] = v
		}
		out = append(out, Runnable{Line: r.Line, Vars: vars})
	}
	slices.SortStableFunc(out, func(a, b Runnable) int { return a.Line - b.Line })
	return out
}

// HasRunnable reports whether line is runnable.
func (d *Document) HasRunnable(line int) bool {
	_, ok := d.runnable(line)
	return ok
}

func (d *Document) runnable(line int) (Runnable, bool) {
	for _, r := range d.Runnables() {
		if r.Line == line {
			return r, true
		}
	}
	return Runnable{}, false
}

var templateVar = regexp.MustCompile(`\{(.*?)\}`)

// RunCommand returns the command that runs line: the language's run command
// for line 0 of an executable file, otherwise its test command. Template
// variables without a value are left as written.
func (d *Document) RunCommand(line int) (string, bool) {
	r, ok := d.runnable(line)
	if !ok || d.config == nil {
		return "", false
	}
	template := d.config.CmdTest
	if d.config.Executable && line == 0 {
		template = d.config.Cmd
	}
	return templateVar.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := r.Vars[m[1:len(m)-1]]; ok && v != "" {
			return v
		}
		return m
	}), true
}

package scenario

import (
	"fmt"
	"sort"
	"time"
)

// Both profiles target the same seven endpoints of the demo service.
var builtins = map[string]func() Mix{
	"standard": Standard,
	"happy":    Happy,
}

// Standard is the error-heavy profile.
func Standard() Mix {
	return Mix{
		Name:        "standard",
		Description: "error-heavy traffic: a third good requests, plenty of 404s and 500s",
		Tasks: []Task{
			{Name: "good", Path: "/good", Weight: 10},
			{Name: "ok", Path: "/ok", Weight: 5},
			{Name: "bad", Path: "/bad", Weight: 3},
			{Name: "acceptable", Path: "/acceptable", Weight: 2},
			{Name: "veryslow", Path: "/veryslow", Weight: 2},
			{Name: "unpredictable", Path: "/err", Weight: 5},
			{Name: "not_found", Path: "/notfound", Weight: 5},
		},
		Pacing: Between(1*time.Second, 5*time.Second),
	}
}

// Happy is the mostly-successful profile.
func Happy() Mix {
	return Mix{
		Name:        "happy",
		Description: "mostly successful traffic dominated by /good",
		Tasks: []Task{
			{Name: "good", Path: "/good", Weight: 90},
			{Name: "ok", Path: "/ok", Weight: 9},
			{Name: "bad", Path: "/bad", Weight: 1},
			{Name: "acceptable", Path: "/acceptable", Weight: 2},
			{Name: "veryslow", Path: "/veryslow", Weight: 2},
			{Name: "unpredictable", Path: "/err", Weight: 3},
			{Name: "not_found", Path: "/notfound", Weight: 2},
		},
		Pacing: Between(1*time.Second, 5*time.Second),
	}
}

func Lookup(name string) (Mix, error) {
	f, ok := builtins[name]
	if !ok {
		return Mix{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownMix, name, Names())
	}
	return f(), nil
}

func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

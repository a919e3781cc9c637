package engine

import (
	"fmt"
	"math/rand"
)

var nameAdjectives = []string{
	"amber", "brisk", "clever", "dapper", "eager", "fuzzy", "glossy",
	"humble", "ivory", "jolly", "keen", "lively", "mellow", "nimble",
	"opal", "plucky", "quirky", "rustic", "snappy", "tidy", "vivid",
	"witty", "zesty",
}

var nameNouns = []string{
	"badger", "cricket", "dolphin", "egret", "ferret", "gopher",
	"heron", "ibis", "jackal", "kestrel", "lemur", "marmot", "newt",
	"otter", "pelican", "quail", "raven", "stoat", "tapir", "vole",
	"wombat", "yak",
}

// randomName builds a human-readable lobby or game name like "plucky-otter".
func randomName() string {
	adjective := nameAdjectives[rand.Intn(len(nameAdjectives))]
	noun := nameNouns[rand.Intn(len(nameNouns))]
	return fmt.Sprintf("%s-%s", adjective, noun)
}

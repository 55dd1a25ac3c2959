package hcldef

import "github.com/hashicorp/hcl/v2"

type fileRoot struct {
	Graphs []*graphBlock `hcl:"graph,block"`
}

type graphBlock struct {
	Name    string        `hcl:"name,label"`
	Extends []string      `hcl:"extends,optional"`
	Options *optionsBlock `hcl:"options,block"`
	Inputs  []*inputBlock `hcl:"input,block"`
	Consts  []*constBlock `hcl:"const,block"`
	Nodes   []*nodeBlock  `hcl:"node,block"`
}

type optionsBlock struct {
	Cache      *bool    `hcl:"cache,optional"`
	CacheDepth *int     `hcl:"cache_depth,optional"`
	Params     []string `hcl:"params,optional"`
}

type inputBlock struct {
	Name string `hcl:"name,label"`
}

type constBlock struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value"`
}

type nodeBlock struct {
	Name string         `hcl:"name,label"`
	Func string         `hcl:"func"`
	Args hcl.Expression `hcl:"args,optional"`
}

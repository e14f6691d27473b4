package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/cortexsync/core"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	// If we're in the core subpackage, cd up to project root
	if strings.HasSuffix(cwd, "core") {
		if err := os.Chdir(".."); err != nil {
			panic(err)
		}
	}
	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/cortexsync/core"),
	)
	if err != nil {
		panic(err)
	}

	g.AddDefinedType(reflect.TypeFor[core.ID]())
	g.AddDefinedType(reflect.TypeFor[core.RunState]())

	// Unix micro timestamps
	opts := typeops.WithTimeUnit(typeops.Micro)

	// ID, Text, Metadata, UpdatedAt
	err = g.AddStruct(reflect.TypeFor[core.Item](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(opts))
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.SourceBatch](),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		panic(err)
	}

	// ID, Collection, Text, Metadata, Vector, IndexedAt
	err = g.AddStruct(reflect.TypeFor[core.IndexedDocument](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(opts))
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.RunRecord](),
		structops.WithField(), // RunID
		structops.WithField(), // Schedule
		structops.WithField(), // State
		structops.WithField(opts),
		structops.WithField(opts),
		structops.WithField(), // Sources
		structops.WithField(), // Fetched
		structops.WithField(), // ChunkSize
		structops.WithField(), // BatchIndex
		structops.WithField(), // ChunkIndex
		structops.WithField(), // ChunkDigest
		structops.WithField(), // Indexed
		structops.WithField(), // Error
		structops.WithField(), // ErrorClass
		structops.WithField(opts),
		structops.WithField(opts),
		structops.WithField(opts))
	if err != nil {
		panic(err)
	}

	bs, err := g.Generate()
	if err != nil {
		panic(err)
	}

	err = os.WriteFile("./core/records_mus.gen.go", bs, 0644)
	if err != nil {
		panic(err)
	}
}

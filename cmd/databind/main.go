package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/reoring/databind/model"
	"github.com/reoring/databind/schemadoc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "validate":
		os.Exit(validateCmd(os.Args[2:]))
	case "export":
		os.Exit(exportCmd(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `databind CLI

Usage:
  databind validate -schema schema.yaml data.json [data2.json ...]
  databind export -schema schema.yaml

validate checks each JSON document against the declared model schema and
prints the failing fields; exit code 1 when any document is invalid.
export prints the model as a JSON Schema document.`)
}

func validateCmd(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var schemaPath string
	fs.StringVar(&schemaPath, "schema", "", "model schema document (.yaml, .yml or .json)")
	_ = fs.Parse(args)
	if schemaPath == "" || fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	class := loadClass(schemaPath)
	exit := 0
	for _, path := range fs.Args() {
		if !validateFile(class, path) {
			exit = 1
		}
	}
	return exit
}

func exportCmd(args []string) int {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var schemaPath string
	fs.StringVar(&schemaPath, "schema", "", "model schema document (.yaml, .yml or .json)")
	_ = fs.Parse(args)
	if schemaPath == "" {
		fs.Usage()
		return 2
	}

	class := loadClass(schemaPath)
	out, err := json.MarshalIndent(class.JSONSchema(), "", "  ")
	if err != nil {
		fatalf("encoding schema: %v", err)
	}
	fmt.Println(string(out))
	return 0
}

func loadClass(schemaPath string) *model.Class {
	s, err := schemadoc.LoadFile(schemaPath)
	if err != nil {
		fatalf("loading schema: %v", err)
	}
	class, err := model.Build(s)
	if err != nil {
		fatalf("building model: %v", err)
	}
	return class
}

func validateFile(class *model.Class, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("%s: %v\n", path, err)
		return false
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		fmt.Printf("%s: invalid JSON: %v\n", path, err)
		return false
	}
	in, err := class.New(obj)
	if err != nil {
		fmt.Printf("%s: %v\n", path, err)
		return false
	}
	if in.Validate() {
		fmt.Printf("%s: ok\n", path)
		return true
	}

	errs := in.Errors()
	paths := make([]string, 0, len(errs))
	for p := range errs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		codes := make([]string, 0, len(errs[p]))
		for c := range errs[p] {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			fmt.Printf("%s: %s: %s (%s)\n", path, p, errs[p][c], c)
		}
	}
	return false
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

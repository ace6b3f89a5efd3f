package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/skiff-lang/skiff/pkg/ast"
	"github.com/skiff-lang/skiff/pkg/interpreter"
	"github.com/skiff-lang/skiff/pkg/runtime"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := &cli.Command{
		Name:  "skiff",
		Usage: "Evaluate ESTree-style AST programs",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Evaluate a parsed program (ESTree JSON) and print its result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "globals",
						Usage: "YAML file of initial bindings for the outermost frame",
					},
					&cli.BoolFlag{
						Name:  "strict-identifiers",
						Usage: "treat unresolved identifiers as reference errors",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("must provide exactly one AST JSON file as argument")
					}

					data, err := os.ReadFile(c.Args().First())
					if err != nil {
						return fmt.Errorf("failed to read program: %w", err)
					}

					prog, err := ast.DecodeJSON(data)
					if err != nil {
						return fmt.Errorf("failed to decode program: %w", err)
					}

					config := interpreter.Config{
						StrictIdentifiers: c.Bool("strict-identifiers"),
					}

					if path := c.String("globals"); path != "" {
						config.Globals, err = loadGlobals(path)
						if err != nil {
							return err
						}
					}

					interp := interpreter.New(slog.Default(), config)

					result, err := interp.Evaluate(prog)
					if err != nil {
						fmt.Fprintf(os.Stderr, "%v\n", err)
						os.Exit(1)
					}

					fmt.Println(runtime.Format(result))
					return nil
				},
			},
		},
	}

	err := cmd.Run(ctx, os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func loadGlobals(path string) (map[string]runtime.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read globals file: %w", err)
	}

	var seed map[string]any
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode globals file: %w", err)
	}

	globals := make(map[string]runtime.Value, len(seed))
	for name, raw := range seed {
		v, err := seedValue(raw)
		if err != nil {
			return nil, fmt.Errorf("global %q: %w", name, err)
		}
		globals[name] = v
	}

	return globals, nil
}

func seedValue(raw any) (runtime.Value, error) {
	switch raw := raw.(type) {
	case nil:
		return runtime.Null, nil
	case bool:
		return runtime.BoolValue(raw), nil
	case int:
		return runtime.NumberValue(raw), nil
	case int64:
		return runtime.NumberValue(raw), nil
	case float64:
		return runtime.NumberValue(raw), nil
	case string:
		return runtime.StringValue(raw), nil
	case []any:
		arr := runtime.NewArray()
		for _, item := range raw {
			v, err := seedValue(item)
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, v)
		}
		return arr, nil
	case map[string]any:
		obj := runtime.NewObject()
		for key, item := range raw {
			v, err := seedValue(item)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/engram-ai/engram/document"
	"github.com/engram-ai/engram/memory"
)

var (
	storeMetaFlags []string

	searchTopK      int
	searchThreshold float64
	searchProject   string

	ingestProject  string
	ingestType     string
	ingestPriority string
	ingestTags     string
)

var storeCmd = &cobra.Command{
	Use:   "store <content>",
	Short: "Store a memory in both stores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		metadata, err := parseMetaFlags(storeMetaFlags)
		if err != nil {
			return err
		}
		id, err := eng.Store(cmd.Context(), namespace, args[0], metadata)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch a memory record by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := eng.Get(cmd.Context(), namespace, args[0])
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search memories by meaning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		opts := &memory.SearchOptions{TopK: searchTopK, Threshold: searchThreshold}
		if searchProject != "" {
			opts.Filter = map[string]string{memory.MetaProject: searchProject}
		}
		results, err := eng.Search(cmd.Context(), namespace, args[0], opts)
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a memory from both stores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		return eng.Delete(cmd.Context(), namespace, args[0])
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Decompose a document file into section memories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		result, err := eng.Decompose(cmd.Context(), namespace, document.Request{
			Text:     string(data),
			Project:  ingestProject,
			DocType:  document.Type(ingestType),
			Priority: ingestPriority,
			Tags:     ingestTags,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <project> <doc-type>",
	Short: "Reassemble a decomposed document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		text, err := eng.Reconstruct(cmd.Context(), namespace, args[0], document.Type(args[1]))
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List records belonging to a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := eng.ListByProject(cmd.Context(), namespace, args[0])
		if err != nil {
			return err
		}
		return printJSON(records)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Regenerate vector entries missing for record rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := eng.Reconcile(cmd.Context(), namespace)
		if report != nil {
			printJSON(report)
		}
		return err
	},
}

func init() {
	storeCmd.Flags().StringArrayVarP(&storeMetaFlags, "meta", "m", nil, "Metadata key=value (repeatable)")

	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", memory.DefaultTopK, "Maximum results")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", memory.DefaultThreshold, "Minimum similarity (exclusive)")
	searchCmd.Flags().StringVarP(&searchProject, "project", "p", "", "Restrict to a project")

	ingestCmd.Flags().StringVarP(&ingestProject, "project", "p", "", "Project name")
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "", "Document type (inferred when omitted)")
	ingestCmd.Flags().StringVar(&ingestPriority, "priority", "", "Priority (default Medium)")
	ingestCmd.Flags().StringVar(&ingestTags, "tags", "", "Comma-separated tags")
	ingestCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(storeCmd, getCmd, searchCmd, rmCmd, ingestCmd, rebuildCmd, listCmd, reconcileCmd)
}

func parseMetaFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(flags))
	for _, f := range flags {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --meta %q (want key=value)", f)
		}
		metadata[k] = v
	}
	return metadata, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

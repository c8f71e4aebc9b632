package ctl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/club"
	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/reviewrequest"
	requestsqlite "github.com/prereview/prereview/internal/reviewrequest/sqlite"
	websqlite "github.com/prereview/prereview/internal/services/web/storage/sqlite"
	"github.com/spf13/cobra"
)

func newMigrateCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			web, err := websqlite.Open(ctx, env.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrate web store: %w", err)
			}
			_ = web.Close()
			requests, err := requestsqlite.Open(ctx, env.cfg.RequestsDBPath)
			if err != nil {
				return fmt.Errorf("migrate review request store: %w", err)
			}
			_ = requests.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s and %s\n", env.cfg.DBPath, env.cfg.RequestsDBPath)
			return nil
		},
	}
}

func newClubsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clubs",
		Short: "List clubs and their leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLEADS")
			for _, c := range club.All() {
				leads := make([]string, 0, len(c.Leads))
				for _, lead := range c.Leads {
					leads = append(leads, lead.Name)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, strings.Join(leads, ", "))
			}
			return w.Flush()
		},
	}
}

func newRequestsCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect and maintain review requests",
	}
	cmd.AddCommand(
		newRequestsListCommand(env),
		newRequestsFeedCommand(env),
		newRequestsRebuildCommand(env),
		newRequestsImportCommand(env),
		newRequestsRecategorizeCommand(env),
		newRequestsCategorizeCommand(env),
	)
	return cmd
}

func newRequestsListCommand(env *environment) *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the review-request read model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projector, done, err := env.projector(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()
			records := projector.Snapshot().Records()
			if pending {
				records = reviewrequest.Uncategorized(projector.Snapshot())
			}
			return printRecords(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().BoolVar(&pending, "uncategorized", false, "only list requests waiting for categorization")
	return cmd
}

func printRecords(out io.Writer, records []reviewrequest.Record) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPUBLISHED\tDOI\tLANGUAGE\tFIELDS")
	for _, record := range records {
		fields := make([]string, 0, len(record.Fields))
		for _, field := range record.Fields {
			fields = append(fields, openalex.FieldName(field))
		}
		published := "-"
		if !record.Published.IsZero() {
			published = record.Published.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", record.ID, published, record.PreprintID.DOI, orDash(record.Language), strings.Join(fields, ", "))
	}
	return w.Flush()
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func newRequestsFeedCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Print the public requests feed as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projector, done, err := env.projector(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(reviewrequest.RequestsData(projector.Snapshot()))
		},
	}
}

func newRequestsRebuildCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the read model from stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projector, done, err := env.projector(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()
			state := projector.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "%d review requests, %d uncategorized\n", state.Len(), len(reviewrequest.Uncategorized(state)))
			return nil
		},
	}
}

func newRequestsImportCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import review requests from JSON lines (- reads stdin)",
		Long: `Each line is an object such as
  {"preprint": "10.1101/2024.01.01.000001", "publishedAt": "2024-01-02T10:00:00Z",
   "server": "biorxiv", "requester": {"name": "Josiah Carberry", "orcid": "0000-0002-1825-0097"}}
Lines with a server become server imports; the rest are PREreviewer imports.
Importing the same line twice has no effect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			}
			events, err := ReadImport(in)
			if err != nil {
				return err
			}
			projector, done, err := env.projector(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()
			fresh := NewEvents(projector.Snapshot(), events)
			if err := projector.Record(cmd.Context(), fresh...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d review requests\n", len(fresh), len(events))
			return nil
		},
	}
}

func newRequestsRecategorizeCommand(env *environment) *cobra.Command {
	var language string
	var topics []string
	cmd := &cobra.Command{
		Use:   "recategorize REQUEST_ID",
		Short: "Replace the language or topics of a review request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("review request id: %w", err)
			}
			event := reviewrequest.Recategorized{ReviewRequestID: requestID}
			if cmd.Flags().Changed("language") {
				code := strings.ToLower(strings.TrimSpace(language))
				event.Language = &code
			}
			if cmd.Flags().Changed("topic") {
				event.Topics = make([]openalex.TopicID, 0, len(topics))
				for _, topic := range topics {
					event.Topics = append(event.Topics, openalex.TopicID(strings.TrimSpace(topic)))
				}
			}
			if event.Language == nil && event.Topics == nil {
				return fmt.Errorf("nothing to change: pass --language or --topic")
			}
			projector, done, err := env.projector(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()
			if _, ok := projector.Snapshot().Get(requestID); !ok {
				return fmt.Errorf("review request %s not found", requestID)
			}
			if err := projector.Record(cmd.Context(), event); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recategorized %s\n", requestID)
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "ISO 639-1 language code")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "OpenAlex topic id, repeatable")
	return cmd
}

func newRequestsCategorizeCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "categorize",
		Short: "Categorize pending review requests with OpenAlex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projector, done, err := env.projector(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer done()
			n, err := projector.CategorizePending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "categorized %d review requests\n", n)
			return nil
		},
	}
}

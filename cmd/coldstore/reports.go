package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/coldstore/internal/capacity"
	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/report"
	"github.com/pbaille/coldstore/internal/warehouse"
)

func recomputeCmd() *cobra.Command {
	var roomID, with string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Re-derive room totals from entries or lots",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if roomID == "" {
				aggs, err := svc.RecomputeAll(cmd.Context())
				if err != nil {
					return err
				}
				for _, a := range aggs {
					printAggregate(a)
				}
				return nil
			}

			r := svc.Rule()
			if with != "" {
				if r, err = capacity.ParseRule(with); err != nil {
					return err
				}
			}
			recompute := svc.RecomputeFromEntries
			if r == capacity.RuleLots {
				recompute = svc.RecomputeFromLots
			}
			a, err := recompute(cmd.Context(), roomID)
			if err != nil {
				return err
			}
			printAggregate(a)
			return nil
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "room id (all rooms when empty)")
	cmd.Flags().StringVar(&with, "with", "", "rule to evaluate: entries or lots (default: canonical rule)")
	return cmd
}

func printAggregate(a capacity.Aggregate) {
	note := ""
	if !a.Applied {
		note = "  (preview, not saved)"
	}
	fmt.Printf("%s  [%s] %5d bags  %8.3f t  %s%s\n", a.RoomID, a.Rule, a.BagCount, a.TotalWeight, a.Status, note)
}

func statusCmd() *cobra.Command {
	var f report.RoomFilter
	var status string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the room status grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = domain.Status(status)
			if f.Status != "" && !f.Status.Valid() {
				return domain.Invalid("status", "unknown status %q", status)
			}
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			return printStatus(cmd.Context(), svc, f)
		},
	}

	cmd.Flags().StringVar(&f.Floor, "floor", "", "only rooms on this floor")
	cmd.Flags().StringVar(&status, "status", "", "only rooms displayed as available or occupied")
	return cmd
}

func printStatus(ctx context.Context, svc *warehouse.Service, f report.RoomFilter) error {
	rooms, err := svc.ListRooms(ctx)
	if err != nil {
		return err
	}
	rooms = report.FilterRooms(rooms, f)
	if len(rooms) == 0 {
		fmt.Println("No matching rooms.")
		return nil
	}

	floor := ""
	for _, r := range rooms {
		if r.Floor != floor {
			floor = r.Floor
			fmt.Printf("Floor %s\n", floor)
		}
		fmt.Printf("  %-12s %-9s %5d bags\n", truncate(r.Name, 12), r.DisplayStatus(), r.BagCount)
	}
	return nil
}

func reportCmd() *cobra.Command {
	var f report.EntryFilter
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "List intakes matching a filter, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			rep, err := buildReport(cmd.Context(), svc, f)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				out, err := os.Create(xlsxPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", xlsxPath, err)
				}
				defer out.Close()
				if err := report.WriteXLSX(out, rep); err != nil {
					return err
				}
				fmt.Printf("Wrote %d rows to %s\n", len(rep.Rows), xlsxPath)
				return nil
			}

			printReport(rep)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.RoomID, "room", "", "room id")
	cmd.Flags().StringVar(&f.ClientID, "client", "", "client id")
	cmd.Flags().StringVar(&f.From, "from", "", "first date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.To, "to", "", "last date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the report to an xlsx file")
	return cmd
}

func buildReport(ctx context.Context, svc *warehouse.Service, f report.EntryFilter) (report.Report, error) {
	entries, err := svc.ListEntries(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(entries, f)
}

func printReport(rep report.Report) {
	if len(rep.Rows) == 0 {
		fmt.Println("No matching entries found.")
		return
	}
	printEntries(rep.Rows)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Total: %d bags, %s t\n", rep.TotalBags, rep.TotalWeight.StringFixed(3))
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			return printStats(cmd.Context(), svc)
		},
	}
}

func printStats(ctx context.Context, svc *warehouse.Service) error {
	recs, err := svc.Records(ctx)
	if err != nil {
		return err
	}
	s := report.Dashboard(recs.Rooms, recs.Clients, recs.Entries, time.Now())

	fmt.Printf("Rooms:          %d (%d occupied)\n", s.Rooms, s.OccupiedRooms)
	fmt.Printf("Clients:        %d\n", s.Clients)
	fmt.Printf("Today's entries: %d\n", s.TodayEntries)
	fmt.Printf("Stored:         %d bags, %s t\n", s.StoredBags, s.StoredWeight.StringFixed(3))
	return nil
}

// views maps a view name to its renderer
var views = map[string]func(ctx context.Context, svc *warehouse.Service) error{
	"dashboard": printStats,
	"rooms": func(ctx context.Context, svc *warehouse.Service) error {
		rooms, err := svc.ListRooms(ctx)
		if err != nil {
			return err
		}
		printRooms(rooms)
		return nil
	},
	"clients": func(ctx context.Context, svc *warehouse.Service) error {
		clients, err := svc.ListClients(ctx)
		if err != nil {
			return err
		}
		printClients(clients)
		return nil
	},
	"status": func(ctx context.Context, svc *warehouse.Service) error {
		return printStatus(ctx, svc, report.RoomFilter{})
	},
	"report": func(ctx context.Context, svc *warehouse.Service) error {
		rep, err := buildReport(ctx, svc, report.EntryFilter{})
		if err != nil {
			return err
		}
		printReport(rep)
		return nil
	},
	"division": func(ctx context.Context, svc *warehouse.Service) error {
		recs, err := svc.Records(ctx)
		if err != nil {
			return err
		}
		for _, r := range recs.Rooms {
			fmt.Printf("%s (floor %s)\n", r.Name, r.Floor)
			printLots(recs.Lots[r.ID])
		}
		return nil
	},
}

func viewCmd() *cobra.Command {
	names := make([]string, 0, len(views))
	for n := range views {
		names = append(names, n)
	}
	sort.Strings(names)

	return &cobra.Command{
		Use:       "view [name]",
		Short:     "Render a named view: " + strings.Join(names, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			render, ok := views[args[0]]
			if !ok {
				return fmt.Errorf("unknown view %q (want one of %s)", args[0], strings.Join(names, ", "))
			}
			svc, st, err := getService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			return render(cmd.Context(), svc)
		},
	}
}

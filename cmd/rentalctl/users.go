package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/store"
)

var listUsers bool

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect user accounts",
}

var usersStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show role and status distribution",
	Long: `Count users by role and by status. Accounts stored without a role
field are reported separately, which is usually the reason an admin
cannot reach admin routes.`,
	RunE: runUsersStats,
}

func init() {
	usersStatsCmd.Flags().BoolVar(&listUsers, "list", false, "also print every user")
}

func runUsersStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	users := store.NewUserStore(database())
	dist, err := users.Distribution(ctx)
	if err != nil {
		return err
	}

	var all []models.User
	if listUsers {
		if all, err = users.All(ctx); err != nil {
			return err
		}
	}
	return printUserStats(cmd.OutOrStdout(), dist, all)
}

func printUserStats(w io.Writer, dist *store.Distribution, users []models.User) error {
	fmt.Fprintf(w, "Total users: %d\n", dist.Total)

	if len(users) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tSTATUS\tCREATED")
		for _, u := range users {
			role := u.Role
			if role == "" {
				role = "(none)"
			}
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
				u.ID.Hex(), u.FirstName, u.LastName, u.Email, role, u.Status, u.CreatedAt.Format(time.RFC3339))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nRole distribution")
	fmt.Fprintf(w, "  Admins:        %d\n", dist.ByRole[models.RoleAdmin])
	fmt.Fprintf(w, "  Users:         %d\n", dist.ByRole[models.RoleUser])
	fmt.Fprintf(w, "  No role field: %d\n", dist.ByRole[""])

	fmt.Fprintln(w, "\nStatus distribution")
	fmt.Fprintf(w, "  Active:        %d\n", dist.ByStatus[models.UserStatusActive])
	fmt.Fprintf(w, "  Inactive:      %d\n", dist.ByStatus[models.UserStatusInactive])
	fmt.Fprintf(w, "  Suspended:     %d\n", dist.ByStatus[models.UserStatusSuspended])
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/Strob0t/PromptDesk/internal/adapter/postgres"
	"github.com/Strob0t/PromptDesk/internal/domain/tenant"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/service"
)

// cliActor is the operator running admin commands. It holds the admin role
// and belongs to no tenant.
var cliActor = &user.User{ID: "cli", Role: user.RoleAdmin, Active: true}

// AdminCmd groups the operator subcommands.
type AdminCmd struct {
	CreateTenant    CreateTenantCmd    `cmd:"" help:"Create a new tenant"`
	CreateUser      CreateUserCmd      `cmd:"" help:"Create a user within a tenant's capacity"`
	ListUsers       ListUsersCmd       `cmd:"" help:"List the users of a tenant"`
	SetUserActive   SetUserActiveCmd   `cmd:"" help:"Activate or deactivate a user"`
	SetTenantActive SetTenantActiveCmd `cmd:"" help:"Activate or deactivate a tenant"`
}

func loadDirectory(g *Globals) (*service.DirectoryService, func(), error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := postgres.NewPool(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool).WithRetryBudget(cfg.Postgres.RetryMaxElapsed)
	return service.NewDirectoryService(store), pool.Close, nil
}

// resolveTenant accepts either a tenant ID or a subdomain.
func resolveTenant(ctx context.Context, dir *service.DirectoryService, ref string) (*tenant.Tenant, error) {
	if _, err := uuid.Parse(ref); err == nil {
		return dir.GetTenant(ctx, ref)
	}
	t, err := dir.ResolveTenant(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", ref, err)
	}
	return t, nil
}

type CreateTenantCmd struct {
	Name      string `help:"tenant display name" required:""`
	Subdomain string `help:"unique subdomain" required:""`
	MaxUsers  int    `help:"maximum number of active users" default:"10"`
}

func (c *CreateTenantCmd) Run(ctx context.Context, g *Globals) error {
	dir, cleanup, err := loadDirectory(g)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := dir.CreateTenant(ctx, tenant.CreateRequest{
		Name:      c.Name,
		Subdomain: c.Subdomain,
		MaxUsers:  c.MaxUsers,
	})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s, subdomain=%s, max_users=%d)\n", t.Name, t.ID, t.Subdomain, t.MaxUsers)
	return nil
}

type CreateUserCmd struct {
	Tenant    string `help:"tenant ID or subdomain" required:""`
	Email     string `help:"user email address" required:""`
	FirstName string `help:"first name" required:""`
	LastName  string `help:"last name"`
	Role      string `help:"role" default:"user" enum:"admin,editor,user,viewer"`
}

func (c *CreateUserCmd) Run(ctx context.Context, g *Globals) error {
	dir, cleanup, err := loadDirectory(g)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := resolveTenant(ctx, dir, c.Tenant)
	if err != nil {
		return err
	}
	u, err := dir.CreateUser(ctx, user.CreateRequest{
		TenantID:  t.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      user.Role(c.Role),
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(os.Stderr, "User created: %s (id=%s, role=%s)\n", u.Email, u.ID, u.Role)
	return nil
}

type ListUsersCmd struct {
	Tenant string `help:"tenant ID or subdomain" required:""`
}

func (c *ListUsersCmd) Run(ctx context.Context, g *Globals) error {
	dir, cleanup, err := loadDirectory(g)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := resolveTenant(ctx, dir, c.Tenant)
	if err != nil {
		return err
	}
	users, err := dir.ListUsers(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tACTIVE\tLAST_LOGIN")
	for i := range users {
		lastLogin := "-"
		if users[i].LastLogin != nil {
			lastLogin = users[i].LastLogin.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
			users[i].ID, users[i].Email, users[i].FullName(), users[i].Role, users[i].Active, lastLogin)
	}
	return w.Flush()
}

type SetUserActiveCmd struct {
	ID     string `help:"user ID" required:"" name:"id"`
	Active bool   `help:"whether the user may authenticate" default:"true" negatable:""`
}

func (c *SetUserActiveCmd) Run(ctx context.Context, g *Globals) error {
	dir, cleanup, err := loadDirectory(g)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := dir.SetUserActive(ctx, cliActor, c.ID, c.Active); err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	fmt.Fprintf(os.Stderr, "User %s active=%t\n", c.ID, c.Active)
	return nil
}

type SetTenantActiveCmd struct {
	Tenant string `help:"tenant ID or subdomain" required:""`
	Active bool   `help:"whether members may authenticate" default:"true" negatable:""`
}

func (c *SetTenantActiveCmd) Run(ctx context.Context, g *Globals) error {
	dir, cleanup, err := loadDirectory(g)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := resolveTenant(ctx, dir, c.Tenant)
	if err != nil {
		return err
	}
	if err := dir.SetTenantActive(ctx, cliActor, t.ID, c.Active); err != nil {
		return fmt.Errorf("set tenant active: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Tenant %s active=%t\n", t.Subdomain, c.Active)
	return nil
}

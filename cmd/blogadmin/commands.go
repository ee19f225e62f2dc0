package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/db"
	"github.com/blogicum/blogicum/internal/models"
)

// run dispatches one command against database
func run(ctx context.Context, database *db.DB, command string, args []string, out io.Writer) error {
	switch command {
	case "migrate":
		return migrate(ctx, database, out)
	case "createsuperuser":
		return createSuperuser(ctx, database, args, out)
	case "add-category":
		return addCategory(ctx, database, args, out)
	case "add-location":
		return addLocation(ctx, database, args, out)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func migrate(ctx context.Context, database *db.DB, out io.Writer) error {
	if err := database.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Schema is up to date.")
	return nil
}

func createSuperuser(ctx context.Context, database *db.DB, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("createsuperuser", pflag.ContinueOnError)
	username := fs.String("username", "", "login name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", os.Getenv("BLOG_ADMIN_PASSWORD"), "password (defaults to $BLOG_ADMIN_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("--username and --password are required")
	}

	users := db.NewUserRepository(db.NewRepository(database.DB))
	user, err := auth.NewService(users, nil).Register(ctx, auth.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}
	user.IsStaff = true
	if err := users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to grant staff access: %w", err)
	}

	fmt.Fprintf(out, "Superuser %s created.\n", user.Username)
	return nil
}

func addCategory(ctx context.Context, database *db.DB, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("add-category", pflag.ContinueOnError)
	title := fs.String("title", "", "category title")
	slug := fs.String("slug", "", "URL identifier")
	description := fs.String("description", "", "category description")
	unpublished := fs.Bool("unpublished", false, "hide the category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" || *slug == "" {
		return errors.New("--title and --slug are required")
	}

	category := &models.Category{Title: *title, Slug: *slug, Description: *description, IsPublished: !*unpublished}
	if err := db.NewCategoryRepository(db.NewRepository(database.DB)).Create(ctx, category); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	fmt.Fprintf(out, "Category %s created with id %d.\n", category.Slug, category.ID)
	return nil
}

func addLocation(ctx context.Context, database *db.DB, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("add-location", pflag.ContinueOnError)
	name := fs.String("name", "", "location name")
	unpublished := fs.Bool("unpublished", false, "hide the location")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("--name is required")
	}

	location := &models.Location{Name: *name, IsPublished: !*unpublished}
	if err := db.NewLocationRepository(db.NewRepository(database.DB)).Create(ctx, location); err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	fmt.Fprintf(out, "Location %s created with id %d.\n", location.Name, location.ID)
	return nil
}

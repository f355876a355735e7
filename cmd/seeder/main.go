// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Seeder creates a bootstrap user account so a fresh deployment has
// something to issue tokens for before real signup exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-crypt/x/bcrypt"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/lookbook/config"
	"github.com/poiesic/lookbook/storage"
	"github.com/poiesic/lookbook/storage/postgres"
)

func main() {
	app := &cli.App{
		Name:   "seeder",
		Usage:  "Create a bootstrap user account",
		Action: seedCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Email address for the account",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password for the account",
				EnvVars: []string{"LOOKBOOK_SEED_PASSWORD"},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	password := c.String("password")
	if password == "" {
		return fmt.Errorf("password is required (flag or LOOKBOOK_SEED_PASSWORD)")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := store.Users().Create(ctx, c.String("email"), string(hash))
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("user %s already exists", c.String("email"))
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Created user %s (%s)\n", user.Email, user.ID)
	return nil
}

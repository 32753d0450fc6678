package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/store"
)

var (
	userNombre   string
	userCorreo   string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts that can sign in",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user account",
	Long: `Creates an account for the web interface.

The password is taken from --password, then RRHH_PASSWORD, and otherwise
read as one line from stdin.`,
	Args: cobra.NoArgs,
	RunE: runUserAdd,
}

func init() {
	userAddCmd.Flags().StringVar(&userNombre, "nombre", "", "Display name (required)")
	userAddCmd.Flags().StringVar(&userCorreo, "correo", "", "Sign-in e-mail (required)")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Password (prefer RRHH_PASSWORD or stdin)")
	_ = userAddCmd.MarkFlagRequired("nombre")
	_ = userAddCmd.MarkFlagRequired("correo")

	userCmd.AddCommand(userAddCmd)
}

// newUser validates the account fields and hashes the password.
func newUser(nombre, correo, password string) (string, string, string, error) {
	nombre = strings.TrimSpace(nombre)
	correo = strings.ToLower(strings.TrimSpace(correo))
	if nombre == "" {
		return "", "", "", errors.New("nombre is required")
	}
	if _, err := mail.ParseAddress(correo); err != nil {
		return "", "", "", fmt.Errorf("correo %q is not a valid address", correo)
	}
	if len(password) < 8 {
		return "", "", "", errors.New("password must be at least 8 characters")
	}
	hash, err := core.HashPassword(password)
	if err != nil {
		return "", "", "", err
	}
	return nombre, correo, hash, nil
}

func readPassword(in io.Reader) (string, error) {
	if userPassword != "" {
		return userPassword, nil
	}
	if p := os.Getenv("RRHH_PASSWORD"); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}
	nombre, correo, hash, err := newUser(userNombre, userCorreo, password)
	if err != nil {
		return err
	}

	return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
		u, err := store.NewPostgres(pool).CreateUser(ctx, nombre, correo, hash)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		logger.Info("user created", "id", u.ID, "correo", u.Correo)
		fmt.Fprintf(cmd.OutOrStdout(), "usuario %d creado: %s\n", u.ID, u.Correo)
		return nil
	})
}

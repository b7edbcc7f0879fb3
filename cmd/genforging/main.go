// genforging mints an encrypted forging entry for the node
// configuration: it generates (or accepts) a forging secret, derives
// the delegate keypair, and seals the secret under an operator
// password.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/forgenet/forged/forging"
	"github.com/forgenet/forged/wire"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

func main() {
	if err := genForging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func genForging() error {
	cfg, err := parseConfig()
	if err != nil {
		return err
	}

	secret := cfg.Secret
	if secret == "" {
		secret, err = forging.NewSecret()
		if err != nil {
			return errors.Wrap(err, "failed to generate forging secret")
		}
		fmt.Println("This is your forging secret. Keep it safe; it grants forging rights for the delegate.")
		fmt.Printf("Secret:\t%s\n\n", secret)
	}

	_, publicKey, err := forging.DeriveKeyPair(secret)
	if err != nil {
		return err
	}
	address, err := wire.AddressFromPublicKey(publicKey)
	if err != nil {
		return err
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	entry, err := forging.EncryptSecret([]byte(secret), password, cfg.Version)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt forging secret")
	}
	entry.PublicKey = publicKey

	serialized, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	fmt.Printf("Delegate public key:\t%s\n", publicKey)
	fmt.Printf("Delegate address:\t%s\n\n", address)
	fmt.Println("Add this entry to the forging secrets file:")
	fmt.Println(string(serialized))
	return nil
}

func promptPassword() ([]byte, error) {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read password")
	}
	fmt.Print("Confirm password: ")
	confirmation, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read password confirmation")
	}
	if !bytes.Equal(password, confirmation) {
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

// Command authfetch fetches protected resources, renewing the OAuth2 access token
// when the server rejects it.
package main

import (
	"log"
	"os"

	_ "github.com/viant/scy/kms/blowfish"
	"github.com/viant/tokenrefresh/fetch"
)

func main() {
	if err := fetch.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

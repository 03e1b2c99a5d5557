package directory

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// CharactersQuery is the GraphQL document sent to the directory.
const CharactersQuery = `
query GetCharacters($page: Int!, $filter: FilterCharacter) {
  characters(page: $page, filter: $filter) {
    info {
      count
      pages
      next
      prev
    }
    results {
      id
      name
      status
      species
      type
      gender
      origin {
        name
      }
      location {
        name
      }
      image
      episode {
        id
      }
      created
    }
  }
}
`

// checkQuery parses a query document and verifies it declares exactly one
// operation using the page and filter variables.
func checkQuery(query string) error {
	doc, err := parser.ParseQuery(&ast.Source{Name: "characters", Input: query})
	if err != nil {
		return fmt.Errorf("failed to parse directory query: %w", err)
	}

	if len(doc.Operations) != 1 {
		return fmt.Errorf("directory query must declare one operation, got %d", len(doc.Operations))
	}

	op := doc.Operations[0]
	if op.Operation != ast.Query {
		return fmt.Errorf("directory operation must be a query, got %s", op.Operation)
	}
	if op.VariableDefinitions.ForName("page") == nil {
		return fmt.Errorf("directory query must declare $page")
	}
	if op.VariableDefinitions.ForName("filter") == nil {
		return fmt.Errorf("directory query must declare $filter")
	}

	return nil
}

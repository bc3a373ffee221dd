package marshal

import (
	"fmt"

	"github.com/dave/jennifer/jen"
)

func render(code jen.Code) string {
	return fmt.Sprintf("%#v", code)
}

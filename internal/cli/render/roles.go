package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// RolesRenderer renders role snapshots and role changes
type RolesRenderer struct {
	out io.Writer
	// names maps known addresses to artifact identities or account names
	names map[string]string
}

// NewRolesRenderer creates a roles renderer. names labels holder addresses.
func NewRolesRenderer(out io.Writer, names map[string]string) *RolesRenderer {
	if names == nil {
		names = map[string]string{}
	}
	return &RolesRenderer{out: out, names: names}
}

// RenderSnapshot prints one row per grant
func (r *RolesRenderer) RenderSnapshot(network string, snapshot domain.RoleSnapshot) error {
	grants := snapshot.Grants()
	if len(grants) == 0 {
		fmt.Fprintf(r.out, "No roles granted on %s\n", network)
		return nil
	}

	printSection(r.out, "Roles on %s", network)
	t := newTable("CONTRACT", "ROLE", "HOLDER")
	last := ""
	for _, g := range grants {
		target := g.Target
		if target == last {
			target = ""
		} else {
			last = target
		}
		t.AppendRow(table.Row{identityStyle.Sprint(target), g.Role, r.holder(g.Holder.Hex())})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderChange prints the outcome of roles give/revoke
func (r *RolesRenderer) RenderChange(result *usecase.ManageRoleResult) error {
	verb := "Granted"
	prep := "to"
	if result.Revoked {
		verb, prep = "Revoked", "from"
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s %s on %s %s %s", verb, result.Role, result.Identity, prep, result.Account.Hex())))
	fmt.Fprintf(r.out, "  holders of %s:\n", result.Role)
	if len(result.Holders) == 0 {
		faintStyle.Fprintln(r.out, "    none")
	}
	for _, h := range result.Holders {
		fmt.Fprintf(r.out, "    %s\n", r.holder(h.Hex()))
	}
	return nil
}

func (r *RolesRenderer) holder(addr string) string {
	if name, ok := r.names[addr]; ok {
		return fmt.Sprintf("%s %s", addressStyle.Sprint(addr), templateStyle.Sprintf("(%s)", name))
	}
	return addressStyle.Sprint(addr)
}

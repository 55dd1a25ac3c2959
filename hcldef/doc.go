// Package hcldef loads graph definitions written in HCL.
//
// Each file holds any number of graph blocks. Arguments are HCL
// expressions: a bare name refers to a node, name.field to one of its
// attributes, a tuple to a list of arguments, and anything else is
// evaluated once as a literal.
//
//	graph "create_user" {
//	  extends = ["base"]
//	  input "email" {}
//	  const "primary" { value = true }
//	  node "user" {
//	    func = "format"
//	    args = ["%s <%s>", first_name, auth.email]
//	  }
//	}
//
// The result is a flow.Spec, resolved into a Definition with flow.Resolve
// exactly like a YAML spec.
package hcldef

package ast

// Inspect traverses the tree rooted at node in pre-order. If f returns false
// the children of that node are not visited.
func Inspect(node Node, f func(Node) bool) {
	if isNil(node) || !f(node) {
		return
	}

	for _, child := range Children(node) {
		Inspect(child, f)
	}
}

// Children returns the direct children of node in source order.
//
//nolint:cyclop,gocyclo // one case per node kind
func Children(node Node) []Node {
	var out []Node

	add := func(nodes ...Node) {
		for _, n := range nodes {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}

	switch n := node.(type) {
	case *Fn:
		for _, p := range n.Params {
			add(p)
		}

		add(fromBlock(n.Body))
	case *Block:
		for _, s := range n.Stmts {
			add(s)
		}
	case *Local:
		add(fromExpr(n.Init), fromBlock(n.Else))
	case *ExprStmt:
		add(fromExpr(n.X))
	case *Paren:
		add(fromExpr(n.X))
	case *Unary:
		add(fromExpr(n.X))
	case *Binary:
		add(fromExpr(n.X), fromExpr(n.Y))
	case *Assign:
		add(fromExpr(n.Lhs), fromExpr(n.Rhs))
	case *AssignOp:
		add(fromExpr(n.Lhs), fromExpr(n.Rhs))
	case *Call:
		add(fromExpr(n.Fun))

		for _, a := range n.Args {
			add(fromExpr(a))
		}
	case *MethodCall:
		add(fromExpr(n.Recv))

		for _, a := range n.Args {
			add(fromExpr(a))
		}
	case *Field:
		add(fromExpr(n.X))
	case *Index:
		add(fromExpr(n.X), fromExpr(n.Index))
	case *Tuple:
		for _, e := range n.Elems {
			add(fromExpr(e))
		}
	case *Cast:
		add(fromExpr(n.X))
	case *Ref:
		add(fromExpr(n.X))
	case *BlockExpr:
		add(fromBlock(n.Block))
	case *If:
		add(fromExpr(n.Cond), fromBlock(n.Then), fromExpr(n.Else))
	case *While:
		add(fromExpr(n.Cond), fromBlock(n.Body))
	case *Loop:
		add(fromBlock(n.Body))
	case *Match:
		add(fromExpr(n.Scrutinee))

		for _, arm := range n.Arms {
			add(arm)
		}
	case *Arm:
		add(fromExpr(n.Guard), fromExpr(n.Body))
	case *Closure:
		for _, p := range n.Params {
			add(p)
		}

		add(fromExpr(n.Body))
	case *Return:
		add(fromExpr(n.X))
	}

	return out
}

// IndexNodes maps every node id reachable from root to its node.
func IndexNodes(root Node) map[NodeID]Node {
	index := make(map[NodeID]Node)

	Inspect(root, func(n Node) bool {
		if n.NodeID() != DummyNodeID {
			index[n.NodeID()] = n
		}

		return true
	})

	return index
}

// typed nil pointers stored in interfaces must not be visited.
func fromExpr(e Expr) Node {
	if e == nil {
		return nil
	}

	return e
}

func fromBlock(b *Block) Node {
	if b == nil {
		return nil
	}

	return b
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}

	switch v := n.(type) {
	case *Block:
		return v == nil
	case *Fn:
		return v == nil
	case *Param:
		return v == nil
	case *Arm:
		return v == nil
	}

	return false
}

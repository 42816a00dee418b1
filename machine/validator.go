package machine

// validate walks k's nodes and enforces every load-time invariant. It is
// the heart of the engine: everything downstream (the runtime's edge
// check) assumes a Kind only ever reaches Run after passing here.
func validate[F any, M any](k *Kind[F, M], reg *Registry) error {
	if k.overview == "" {
		return &DefinitionError{Machine: k.name, Kind: NoOverview, Message: "machine overview is empty"}
	}

	entryCount := 0
	terminalCount := 0
	var entryNode string

	for _, name := range k.order {
		n := k.nodes[name]

		if n.Overview == "" {
			return &DefinitionError{Machine: k.name, Node: name, Kind: NoOverview, Message: "node overview is empty"}
		}

		if n.IsEntry {
			entryCount++
			entryNode = name
		}
		if n.IsTerminal {
			terminalCount++
		}

		for _, succ := range n.HappyPaths {
			if _, ok := k.nodes[succ]; !ok {
				return &DefinitionError{Machine: k.name, Node: name, Kind: EdgeUnknown, Message: "happy path targets unknown node \"" + succ + "\""}
			}
		}
		for _, succ := range n.UnhappyPaths {
			if _, ok := k.nodes[succ]; !ok {
				return &DefinitionError{Machine: k.name, Node: name, Kind: EdgeUnknown, Message: "unhappy path targets unknown node \"" + succ + "\""}
			}
		}

		if n.Exception.MayThrow {
			if n.Exception.OnException == "" {
				return &DefinitionError{Machine: k.name, Node: name, Kind: ExceptionEdgeMismatch, Message: "may-throw node declares no on_exception successor"}
			}
			if _, ok := k.nodes[n.Exception.OnException]; !ok {
				return &DefinitionError{Machine: k.name, Node: name, Kind: ExceptionEdgeMismatch, Message: "on_exception targets unknown node \"" + n.Exception.OnException + "\""}
			}
		} else if n.Exception.OnException != "" {
			return &DefinitionError{Machine: k.name, Node: name, Kind: ExceptionEdgeMismatch, Message: "cannot-throw node declares an on_exception successor"}
		}

		if !n.IsTerminal && len(n.HappyPaths) == 0 && len(n.UnhappyPaths) == 0 {
			return &DefinitionError{Machine: k.name, Node: name, Kind: NoSuccessor, Message: "non-terminal node declares no happy or unhappy successor"}
		}

		if n.InvokesMachine != "" {
			if reg == nil {
				return &DefinitionError{Machine: k.name, Node: name, Kind: InvokesMachineUnknown, Message: "invokes_machine \"" + n.InvokesMachine + "\" but no registry was supplied"}
			}
			if _, ok := reg.Lookup(n.InvokesMachine); !ok {
				return &DefinitionError{Machine: k.name, Node: name, Kind: InvokesMachineUnknown, Message: "invokes_machine \"" + n.InvokesMachine + "\" is not a registered, validated machine kind"}
			}
		}
	}

	if entryCount == 0 {
		return &DefinitionError{Machine: k.name, Kind: NoEntry, Message: "no node declared is_entry"}
	}
	if entryCount > 1 {
		return &DefinitionError{Machine: k.name, Kind: MultipleEntry, Message: "more than one node declared is_entry"}
	}
	if terminalCount == 0 {
		return &DefinitionError{Machine: k.name, Kind: NoTerminal, Message: "no node declared is_terminal"}
	}

	return checkReachability(k, entryNode)
}

// checkReachability performs a BFS from entry over every happy, unhappy,
// and on_exception edge, and fails if any declared node is left unvisited.
func checkReachability[F any, M any](k *Kind[F, M], entry string) error {
	visited := map[string]bool{entry: true}
	queue := []string{entry}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		n := k.nodes[name]

		var successors []string
		successors = append(successors, n.HappyPaths...)
		successors = append(successors, n.UnhappyPaths...)
		if n.Exception.OnException != "" {
			successors = append(successors, n.Exception.OnException)
		}

		for _, succ := range successors {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}

	for _, name := range k.order {
		if !visited[name] {
			return &DefinitionError{Machine: k.name, Node: name, Kind: UnreachableNode, Message: "node is not reachable from the entry node"}
		}
	}
	return nil
}

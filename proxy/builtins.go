package proxy

import (
	"context"
	"fmt"

	"github.com/c360/semgraph/errors"
)

// Builtin capabilities, keyed by the method name the schema declares. A
// class only gains a builtin by declaring a method with its name; anything
// else declared on the class falls back to the echo capability.
func builtins() map[string]capability {
	return map[string]capability{
		"place_order":    placeOrder,
		"pay":            pay,
		"update_profile": updateProfile,
		"change_state":   changeState,
	}
}

// placeOrder creates an Order instance tied to the bound customer. The
// Order class is declared on first use.
func placeOrder(_ context.Context, p *Proxy, args map[string]any) (any, error) {
	if !p.Bound() {
		return nil, errors.Wrap(errors.ErrUnboundProxy, "Proxy", "place_order", "order creation")
	}
	if _, err := p.schema.DeclareClass("Order", ""); err != nil {
		return nil, err
	}

	props := map[string]any{"hasClient": p.Instance}
	if product, ok := args["product"]; ok {
		props["hasProduct"] = fmt.Sprintf("%v", product)
	}
	if quantity, ok := args["quantity"]; ok {
		props["hasQuantity"] = quantity
	}

	orderID, err := p.manager.Create("Order", props, "")
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("order %s placed for %s", orderID, p.Instance), nil
}

// pay marks the bound instance as paid, recording the amount when given.
func pay(_ context.Context, p *Proxy, args map[string]any) (any, error) {
	if !p.Bound() {
		return nil, errors.Wrap(errors.ErrUnboundProxy, "Proxy", "pay", "payment")
	}
	if err := p.manager.UpdateProperty(p.Instance, "hasState", "paid", ""); err != nil {
		return nil, err
	}
	if amount, ok := args["amount"]; ok {
		if err := p.manager.UpdateProperty(p.Instance, "hasPaidAmount", amount, ""); err != nil {
			return nil, err
		}
	}
	return fmt.Sprintf("%s paid", p.Instance), nil
}

// updateProfile writes every argument as a property of the bound instance.
func updateProfile(_ context.Context, p *Proxy, args map[string]any) (any, error) {
	if !p.Bound() {
		return nil, errors.Wrap(errors.ErrUnboundProxy, "Proxy", "update_profile", "profile update")
	}
	for name, value := range args {
		if err := p.manager.UpdateProperty(p.Instance, name, value, ""); err != nil {
			return nil, err
		}
	}
	return fmt.Sprintf("%s updated %d properties", p.Instance, len(args)), nil
}

// changeState moves the bound instance to args["state"]. When the class
// declares a state machine the target must be one of its states.
func changeState(_ context.Context, p *Proxy, args map[string]any) (any, error) {
	if !p.Bound() {
		return nil, errors.Wrap(errors.ErrUnboundProxy, "Proxy", "change_state", "state change")
	}
	target, ok := args["state"].(string)
	if !ok || target == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Proxy", "change_state", "state argument check")
	}

	if states := p.schema.States(p.Class); len(states) > 0 {
		valid := false
		for _, s := range states {
			if s == target {
				valid = true
				break
			}
		}
		if !valid {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "Proxy", "change_state",
				"state "+target+" is not declared for "+p.Class)
		}
	}

	if err := p.manager.UpdateProperty(p.Instance, "hasState", target, ""); err != nil {
		return nil, err
	}
	return fmt.Sprintf("%s moved to state %s", p.Instance, target), nil
}

// internal/browser/scripts.go
package browser

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// Function declarations invoked with `this` bound to a located element.
const (
	jsScrollIntoView = `function() { this.scrollIntoView({block: 'center', inline: 'nearest'}); }`

	jsClick = `function() { this.click(); }`

	// A label reports the state of the control it labels. Elements that are
	// not checkable at all count as selected, there is nothing to verify.
	jsChecked = `function() {
		let control = this;
		if (this.tagName === 'LABEL') {
			control = this.control || this.querySelector('input') ||
				(this.htmlFor ? document.getElementById(this.htmlFor) : null);
		}
		if (!control) { return true; }
		if (typeof control.checked === 'boolean') { return control.checked; }
		const aria = control.getAttribute && control.getAttribute('aria-checked');
		if (aria !== null && aria !== undefined) { return aria === 'true'; }
		return true;
	}`

	jsClickable = `function() {
		if (!this.isConnected || this.disabled) { return false; }
		const style = window.getComputedStyle(this);
		if (style.display === 'none' || style.visibility === 'hidden' || style.pointerEvents === 'none') { return false; }
		const rect = this.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	}`

	jsIsConnected = `function() { return this.isConnected; }`

	jsText = `function() { return this.innerText || this.textContent || ''; }`
)

// findExpression builds the script expression that evaluates to the element
// for loc, or null.
func findExpression(loc Locator) (string, error) {
	literal, err := json.MarshalToString(loc.Value)
	if err != nil {
		return "", fmt.Errorf("failed to encode locator value: %w", err)
	}

	switch loc.By {
	case ByTag:
		return fmt.Sprintf(`document.getElementsByTagName(%s)[0] || null`, literal), nil
	case ByID:
		return fmt.Sprintf(`document.getElementById(%s)`, literal), nil
	case ByQuery:
		return fmt.Sprintf(`document.querySelector(%s)`, literal), nil
	case ByLabelText:
		return fmt.Sprintf(
			`Array.from(document.getElementsByTagName('label')).find(l => (l.textContent || '').includes(%s)) || null`,
			literal,
		), nil
	default:
		return "", fmt.Errorf("unsupported locator strategy %s", loc.By)
	}
}

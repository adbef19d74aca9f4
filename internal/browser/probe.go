package browser

import (
	"encoding/json"
	"fmt"
)

// authorProbe is the author script's result shape.
type authorProbe struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// bodyTextLengthScript measures the visible body text, used to decide
// whether a timed-out navigation still produced a usable document.
const bodyTextLengthScript = `document.body ? document.body.innerText.trim().length : 0`

// structuredDataScript collects every JSON-LD object on the page.
// Top-level arrays are flattened; unparseable blocks are skipped.
const structuredDataScript = `(() => {
	const out = [];
	for (const node of document.querySelectorAll('script[type="application/ld+json"]')) {
		let parsed;
		try { parsed = JSON.parse(node.textContent); } catch (e) { continue; }
		const items = Array.isArray(parsed) ? parsed : [parsed];
		for (const item of items) {
			if (item && typeof item === 'object' && !Array.isArray(item)) out.push(item);
		}
	}
	return out;
})()`

const dataAttributesTemplate = `(() => {
	const out = {};
	let nodes;
	try { nodes = document.querySelectorAll(%s); } catch (e) { return out; }
	for (const el of nodes) {
		for (const attr of el.attributes) {
			const value = attr.value.trim();
			if (attr.name.startsWith('data-') && value !== '' && !(attr.name in out)) {
				out[attr.name] = value;
			}
		}
	}
	return out;
})()`

// dataAttributesScript harvests data- attributes from elements matching
// the profile's markers. First value per attribute name wins.
func dataAttributesScript(markers []string) string {
	selector := ""
	for i, m := range markers {
		if i > 0 {
			selector += ", "
		}
		selector += m
	}
	return fmt.Sprintf(dataAttributesTemplate, jsString(selector))
}

const authorTemplate = `(() => {
	const links = %s;
	for (const sel of links) {
		let el;
		try { el = document.querySelector(sel); } catch (e) { continue; }
		if (el) {
			const text = (el.innerText || '').trim();
			if (text !== '') return {value: text, source: 'link'};
		}
	}
	const pattern = /\b[Vv]on\s+([A-ZÄÖÜ][a-zäöüß]+(?:\s+[A-ZÄÖÜ][a-zäöüß]+){1,3})/;
	const descs = %s;
	for (const sel of descs) {
		let el;
		try { el = document.querySelector(sel); } catch (e) { continue; }
		if (!el) continue;
		const m = (el.innerText || '').match(pattern);
		if (m) return {value: m[1], source: 'description'};
	}
	return {value: '', source: ''};
})()`

// authorScript resolves the in-page author guess: the author link text
// when present, otherwise a name pattern over the description node.
func authorScript(linkSelectors, descriptionSelectors []string) string {
	return fmt.Sprintf(authorTemplate, jsStrings(linkSelectors), jsStrings(descriptionSelectors))
}

const consentTemplate = `(() => {
	const sels = %s;
	for (const sel of sels) {
		let el;
		try { el = document.querySelector(sel); } catch (e) { continue; }
		if (el) { el.click(); return sel; }
	}
	const phrases = ['alle akzeptieren', 'akzeptieren', 'zustimmen', 'einverstanden', 'accept all', 'agree'];
	for (const el of document.querySelectorAll('button, a[role="button"], [role="button"], input[type="submit"]')) {
		const text = (el.innerText || el.value || '').trim().toLowerCase();
		if (text === '' || text.length > 40) continue;
		if (phrases.some(p => text === p || text.includes(p))) {
			el.click();
			return text;
		}
	}
	return '';
})()`

// consentScript clicks the site's known consent buttons, then falls
// back to matching accept phrases on clickable elements. Returns what
// was clicked, empty when nothing matched.
func consentScript(selectors []string) string {
	return fmt.Sprintf(consentTemplate, jsStrings(selectors))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

package fingerprint

import (
	"regexp"
	"strings"
	"sync"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// Signature is one technology detection rule. Patterns are matched
// case-insensitively against the combined HTML + header text; a signature
// hits when any one pattern matches. The catalog is read-only after
// initialization and safe for unsynchronized concurrent reads.
type Signature struct {
	Name           string
	Category       types.StackCategory
	Patterns       []string // regex, or plain substring when not compilable
	VersionPattern string   // first capture group is the version
	Vulnerable     bool
	MinSafeVersion string

	compiled        []*regexp.Regexp
	substrings      []string
	compiledVersion *regexp.Regexp
}

var (
	catalogOnce sync.Once
	catalog     []Signature
)

// Catalog returns the compiled signature catalog.
func Catalog() []Signature {
	catalogOnce.Do(func() {
		catalog = buildCatalog()
		for i := range catalog {
			sig := &catalog[i]
			for _, p := range sig.Patterns {
				if re, err := regexp.Compile("(?i)" + p); err == nil {
					sig.compiled = append(sig.compiled, re)
				} else {
					sig.substrings = append(sig.substrings, strings.ToLower(p))
				}
			}
			if sig.VersionPattern != "" {
				if re, err := regexp.Compile("(?i)" + sig.VersionPattern); err == nil {
					sig.compiledVersion = re
				}
			}
		}
	})
	return catalog
}

func buildCatalog() []Signature {
	return []Signature{
		// JavaScript libraries
		{
			Name:     "jQuery",
			Category: types.CategoryJSLibraries,
			Patterns: []string{
				`jquery[.-]?[\d.]*(?:\.min)?\.js`,
				`jquery\.fn\.jquery`,
			},
			VersionPattern: `jquery[/-]([\d]+\.[\d.]+)(?:\.min)?\.js|jquery\.fn\.jquery\s*=\s*["']([\d.]+)`,
			Vulnerable:     true,
			MinSafeVersion: "3.5.0",
		},
		{
			Name:     "AngularJS",
			Category: types.CategoryJSLibraries,
			Patterns: []string{
				`angular(?:\.min)?\.js`,
				`ng-app=`,
			},
			VersionPattern: `angular[/.-]([\d]+\.[\d.]+)`,
			Vulnerable:     true,
			MinSafeVersion: "1.8.0",
		},
		{
			Name:     "React",
			Category: types.CategoryJSLibraries,
			Patterns: []string{
				`react(?:\.production)?(?:\.min)?\.js`,
				`data-reactroot`,
				`__NEXT_DATA__`,
			},
			VersionPattern: `react@([\d]+\.[\d.]+)`,
		},
		{
			Name:     "Vue.js",
			Category: types.CategoryJSLibraries,
			Patterns: []string{
				`vue(?:\.runtime)?(?:\.min)?\.js`,
				`data-v-app`,
			},
			VersionPattern: `vue@([\d]+\.[\d.]+)`,
		},
		{
			Name:     "Moment.js",
			Category: types.CategoryJSLibraries,
			Patterns: []string{
				`moment(?:\.min)?\.js`,
			},
			VersionPattern: `moment(?:js)?[/@]([\d]+\.[\d.]+)`,
		},
		{
			Name:     "Prototype",
			Category: types.CategoryJSLibraries,
			Patterns: []string{
				`prototype\.js`,
				`Prototype\.Version`,
			},
			VersionPattern: `Prototype\.Version\s*=\s*["']([\d.]+)`,
			Vulnerable:     true,
			MinSafeVersion: "1.7.3",
		},

		// CSS frameworks
		{
			Name:     "Bootstrap",
			Category: types.CategoryCSS,
			Patterns: []string{
				`bootstrap(?:\.min)?\.css`,
				`bootstrap(?:\.bundle)?(?:\.min)?\.js`,
				`class="[^"]*\bcontainer-fluid\b`,
			},
			VersionPattern: `bootstrap[/@]([\d]+\.[\d.]+)`,
		},
		{
			Name:     "Tailwind CSS",
			Category: types.CategoryCSS,
			Patterns: []string{
				`tailwindcss`,
				`class="[^"]*\b(?:sm|md|lg|xl):[a-z-]+`,
			},
			VersionPattern: `tailwindcss[/@]([\d]+\.[\d.]+)`,
		},
		{
			Name:     "Foundation",
			Category: types.CategoryCSS,
			Patterns: []string{
				`foundation(?:\.min)?\.css`,
			},
			VersionPattern: `foundation[/@]([\d]+\.[\d.]+)`,
		},

		// Server technology / CMS
		{
			Name:     "Nginx",
			Category: types.CategoryServerTech,
			Patterns: []string{
				`server:\s*nginx`,
			},
			VersionPattern: `server:\s*nginx/([\d.]+)`,
		},
		{
			Name:     "Apache",
			Category: types.CategoryServerTech,
			Patterns: []string{
				`server:\s*apache`,
			},
			VersionPattern: `server:\s*apache/([\d.]+)`,
		},
		{
			Name:     "Microsoft IIS",
			Category: types.CategoryServerTech,
			Patterns: []string{
				`server:\s*microsoft-iis`,
			},
			VersionPattern: `server:\s*microsoft-iis/([\d.]+)`,
		},
		{
			Name:     "PHP",
			Category: types.CategoryServerTech,
			Patterns: []string{
				`x-powered-by:\s*php`,
				`PHPSESSID`,
			},
			VersionPattern: `x-powered-by:\s*php/([\d.]+)`,
			Vulnerable:     true,
			MinSafeVersion: "8.0",
		},
		{
			Name:     "Express",
			Category: types.CategoryServerTech,
			Patterns: []string{
				`x-powered-by:\s*express`,
			},
		},
		{
			Name:     "WordPress",
			Category: types.CategoryServerTech,
			Patterns: []string{
				`wp-content`,
				`wp-includes`,
				`generator"?\s+content="wordpress`,
			},
			VersionPattern: `content="wordpress\s*([\d.]+)`,
			Vulnerable:     true,
			MinSafeVersion: "5.0",
		},
		{
			Name:     "Joomla",
			Category: types.CategoryServerTech,
			Patterns: []string{
				`generator"?\s+content="joomla`,
				`/media/jui/`,
			},
			VersionPattern: `content="joomla!?\s*([\d.]+)`,
			Vulnerable:     true,
			MinSafeVersion: "4.0",
		},
		{
			Name:     "Drupal",
			Category: types.CategoryServerTech,
			Patterns: []string{
				`x-generator:\s*drupal`,
				`drupal\.settings`,
				`/sites/default/files`,
			},
			VersionPattern: `x-generator:\s*drupal\s*([\d.]+)`,
			Vulnerable:     true,
			MinSafeVersion: "9.0",
		},
		{
			Name:     "TYPO3",
			Category: types.CategoryServerTech,
			Patterns: []string{
				`generator"?\s+content="typo3`,
				`typo3temp/`,
			},
			VersionPattern: `content="typo3\s*(?:cms\s*)?([\d.]+)`,
		},

		// CDN providers
		{
			Name:     "Cloudflare",
			Category: types.CategoryCDN,
			Patterns: []string{
				`server:\s*cloudflare`,
				`cf-ray:`,
				`cdnjs\.cloudflare\.com`,
			},
		},
		{
			Name:     "Amazon CloudFront",
			Category: types.CategoryCDN,
			Patterns: []string{
				`x-amz-cf-id:`,
				`via:.*cloudfront`,
				`cloudfront\.net`,
			},
		},
		{
			Name:     "Akamai",
			Category: types.CategoryCDN,
			Patterns: []string{
				`x-akamai-transformed:`,
				`akamaized\.net`,
			},
		},
		{
			Name:     "Fastly",
			Category: types.CategoryCDN,
			Patterns: []string{
				`x-served-by:\s*cache-`,
				`fastly\.net`,
			},
		},
		{
			Name:     "jsDelivr",
			Category: types.CategoryCDN,
			Patterns: []string{
				`cdn\.jsdelivr\.net`,
			},
		},
		{
			Name:     "unpkg",
			Category: types.CategoryCDN,
			Patterns: []string{
				`unpkg\.com`,
			},
		},

		// E-commerce platforms
		{
			Name:     "WooCommerce",
			Category: types.CategoryEcommerce,
			Patterns: []string{
				`woocommerce`,
			},
			VersionPattern: `woocommerce[/@ ]([\d]+\.[\d.]+)`,
		},
		{
			Name:     "Shopify",
			Category: types.CategoryEcommerce,
			Patterns: []string{
				`cdn\.shopify\.com`,
				`x-shopify-stage:`,
			},
		},
		{
			Name:     "Magento",
			Category: types.CategoryEcommerce,
			Patterns: []string{
				`mage/cookies`,
				`x-magento-`,
				`magento_`,
			},
			Vulnerable:     true,
			MinSafeVersion: "2.4",
			VersionPattern: `magento[/ ]([\d]+\.[\d.]+)`,
		},
		{
			Name:     "PrestaShop",
			Category: types.CategoryEcommerce,
			Patterns: []string{
				`prestashop`,
			},
			VersionPattern: `prestashop[/ ]([\d]+\.[\d.]+)`,
		},
		{
			Name:     "Shopware",
			Category: types.CategoryEcommerce,
			Patterns: []string{
				`shopware`,
			},
			VersionPattern: `shopware[/ ]([\d]+\.[\d.]+)`,
		},

		// Security tooling
		{
			Name:     "reCAPTCHA",
			Category: types.CategorySecurity,
			Patterns: []string{
				`google\.com/recaptcha`,
				`g-recaptcha`,
			},
		},
		{
			Name:     "hCaptcha",
			Category: types.CategorySecurity,
			Patterns: []string{
				`hcaptcha\.com`,
				`h-captcha`,
			},
		},
		{
			Name:     "Cloudflare Turnstile",
			Category: types.CategorySecurity,
			Patterns: []string{
				`challenges\.cloudflare\.com/turnstile`,
				`cf-turnstile`,
			},
		},
		{
			Name:     "Sucuri",
			Category: types.CategorySecurity,
			Patterns: []string{
				`x-sucuri-id:`,
				`sucuri\.net`,
			},
		},
		{
			Name:     "Wordfence",
			Category: types.CategorySecurity,
			Patterns: []string{
				`wordfence`,
			},
		},

		// Social widgets
		{
			Name:     "Facebook SDK",
			Category: types.CategorySocial,
			Patterns: []string{
				`connect\.facebook\.net`,
				`fb-root`,
			},
		},
		{
			Name:     "X Widgets",
			Category: types.CategorySocial,
			Patterns: []string{
				`platform\.twitter\.com/widgets\.js`,
			},
		},
		{
			Name:     "Instagram Embed",
			Category: types.CategorySocial,
			Patterns: []string{
				`instagram\.com/embed\.js`,
			},
		},
		{
			Name:     "LinkedIn Insight",
			Category: types.CategorySocial,
			Patterns: []string{
				`snap\.licdn\.com`,
			},
		},
		{
			Name:     "YouTube Embed",
			Category: types.CategorySocial,
			Patterns: []string{
				`youtube\.com/embed/`,
				`youtube-nocookie\.com`,
			},
		},

		// Analytics
		{
			Name:     "Google Analytics",
			Category: types.CategoryAnalytics,
			Patterns: []string{
				`google-analytics\.com/(?:ga|analytics)\.js`,
				`googletagmanager\.com/gtag/js`,
				`GoogleAnalyticsObject`,
			},
		},
		{
			Name:     "Google Tag Manager",
			Category: types.CategoryAnalytics,
			Patterns: []string{
				`googletagmanager\.com/gtm\.js`,
				`GTM-[A-Z0-9]+`,
			},
		},
		{
			Name:     "Matomo",
			Category: types.CategoryAnalytics,
			Patterns: []string{
				`matomo\.js`,
				`piwik\.js`,
			},
		},
		{
			Name:     "Hotjar",
			Category: types.CategoryAnalytics,
			Patterns: []string{
				`static\.hotjar\.com`,
			},
		},
		{
			Name:     "Facebook Pixel",
			Category: types.CategoryAnalytics,
			Patterns: []string{
				`connect\.facebook\.net/[^"]*fbevents\.js`,
				`fbq\(`,
			},
		},
	}
}

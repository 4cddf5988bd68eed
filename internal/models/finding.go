package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Check names
const (
	CheckResponseTime            = "response_time"
	CheckHTTPSSSL                = "https_ssl"
	CheckMobileFriendly          = "mobile_friendly"
	CheckIndexability            = "indexability"
	CheckXMLSitemap              = "xml_sitemap"
	CheckRobotsTxt               = "robots_txt"
	CheckCanonicalTags           = "canonical_tags"
	CheckStructuredData          = "structured_data"
	CheckBrokenLinks             = "broken_links"
	CheckTitleTags               = "title_tags"
	CheckMetaDescription         = "meta_description"
	CheckHeadingStructure        = "heading_structure"
	CheckImageOptimization       = "image_optimization"
	CheckInternalLinking         = "internal_linking"
	CheckContentAnalysis         = "content_analysis"
	CheckDomainAuthority         = "domain_authority"
	CheckSocialSignals           = "social_signals"
	CheckBacklinkAnalysis        = "backlink_analysis"
	CheckNavigation              = "navigation"
	CheckAccessibility           = "accessibility"
	CheckResponsiveDesign        = "responsive_design"
	CheckSecurityHeaders         = "security_headers"
	CheckPerformanceEnhancements = "performance_enhancements"
)

// Finding is the outcome of one check. Details holds the check specific payload.
type Finding struct {
	Category       Category `json:"category"`
	Check          string   `json:"check"`
	Status         Status   `json:"status"`
	Value          *float64 `json:"value,omitempty"`
	Score          *float64 `json:"score,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	Error          string   `json:"error,omitempty"`
	Details        Details  `json:"details,omitempty"`
}

// Details is implemented by every check payload
type Details interface {
	CheckName() string
}

// ErrorFinding builds a finding for a check that could not complete
func ErrorFinding(c Category, check string, err error) Finding {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Finding{
		Category:       c,
		Check:          check,
		Status:         StatusError,
		Recommendation: msg,
		Error:          msg,
	}
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// DisplayValue renders the finding's value, falling back to its score, for tabular exports
func (f Finding) DisplayValue() string {
	switch {
	case f.Value != nil:
		return formatNumber(*f.Value)
	case f.Score != nil:
		return formatNumber(*f.Score)
	default:
		return "N/A"
	}
}

func formatNumber(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// TitleCase turns "on_page_seo" into "On Page Seo"
func TitleCase(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}

// UnmarshalJSON decodes the details payload into the concrete type of the check
func (f *Finding) UnmarshalJSON(data []byte) error {
	type alias Finding
	var raw struct {
		alias
		Details json.RawMessage `json:"details,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = Finding(raw.alias)
	f.Details = nil

	if len(raw.Details) == 0 || string(raw.Details) == "null" {
		return nil
	}

	d := NewDetails(f.Check)
	if d == nil {
		return fmt.Errorf("unknown check %q", f.Check)
	}
	if err := json.Unmarshal(raw.Details, d); err != nil {
		return fmt.Errorf("decode %s details: %w", f.Check, err)
	}
	f.Details = d
	return nil
}

// NewDetails returns an empty payload for the given check name, or nil if the check carries none
func NewDetails(check string) Details {
	switch check {
	case CheckHTTPSSSL:
		return &HTTPSDetails{}
	case CheckMobileFriendly:
		return &ViewportDetails{}
	case CheckIndexability:
		return &IndexabilityDetails{}
	case CheckXMLSitemap:
		return &RemoteFileDetails{Check: CheckXMLSitemap}
	case CheckRobotsTxt:
		return &RemoteFileDetails{Check: CheckRobotsTxt}
	case CheckCanonicalTags:
		return &CanonicalDetails{}
	case CheckStructuredData:
		return &StructuredDataDetails{}
	case CheckBrokenLinks:
		return &LinkCheckResult{}
	case CheckTitleTags:
		return &TitleDetails{}
	case CheckMetaDescription:
		return &MetaDescriptionDetails{}
	case CheckHeadingStructure:
		return &HeadingDetails{}
	case CheckImageOptimization:
		return &ImageDetails{}
	case CheckInternalLinking:
		return &InternalLinkDetails{}
	case CheckContentAnalysis:
		return &ContentDetails{}
	case CheckDomainAuthority:
		return &DomainDetails{}
	case CheckSocialSignals:
		return &SocialDetails{}
	case CheckBacklinkAnalysis:
		return &BacklinkDetails{}
	case CheckNavigation:
		return &NavigationDetails{}
	case CheckAccessibility:
		return &AccessibilityDetails{}
	case CheckResponsiveDesign:
		return &ResponsiveDetails{}
	case CheckSecurityHeaders:
		return &SecurityHeadersDetails{}
	case CheckPerformanceEnhancements:
		return &PerformanceDetails{}
	}
	return nil
}

type HTTPSDetails struct {
	IsHTTPS  bool `json:"is_https"`
	SSLValid bool `json:"ssl_valid"`
}

func (*HTTPSDetails) CheckName() string { return CheckHTTPSSSL }

type ViewportDetails struct {
	HasViewportMeta bool    `json:"has_viewport_meta"`
	ViewportContent *string `json:"viewport_content"`
}

func (*ViewportDetails) CheckName() string { return CheckMobileFriendly }

type IndexabilityDetails struct {
	RobotsMetaTag   string `json:"robots_meta_tag"`
	AllowsIndexing  bool   `json:"allows_indexing"`
	AllowsFollowing bool   `json:"allows_following"`
}

func (*IndexabilityDetails) CheckName() string { return CheckIndexability }

// RemoteFileDetails describes a well known file such as sitemap.xml or robots.txt
type RemoteFileDetails struct {
	Check      string  `json:"-"`
	URL        string  `json:"url"`
	Exists     bool    `json:"exists"`
	StatusCode int     `json:"status_code"`
	Content    *string `json:"content,omitempty"`
}

func (d *RemoteFileDetails) CheckName() string { return d.Check }

type CanonicalDetails struct {
	HasCanonical bool    `json:"has_canonical"`
	CanonicalURL *string `json:"canonical_url"`
}

func (*CanonicalDetails) CheckName() string { return CheckCanonicalTags }

type JSONLDItem struct {
	Type    string `json:"type"`
	Context string `json:"context"`
}

type StructuredDataDetails struct {
	JSONLDScripts  []JSONLDItem `json:"json_ld_scripts"`
	MicrodataItems []string     `json:"microdata_items"`
	RDFaProperties []string     `json:"rdfa_properties"`
	TotalSchemas   int          `json:"total_schemas"`
}

func (*StructuredDataDetails) CheckName() string { return CheckStructuredData }

// BrokenLink is one link that failed its existence check
type BrokenLink struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	Text       string `json:"text"`
}

// LinkCheckResult is the outcome of the bounded link scan
type LinkCheckResult struct {
	TotalChecked int          `json:"total_checked"`
	BrokenCount  int          `json:"broken_count"`
	Internal     []BrokenLink `json:"internal"`
	External     []BrokenLink `json:"external"`
}

func (*LinkCheckResult) CheckName() string { return CheckBrokenLinks }

type TitleDetails struct {
	Title         string `json:"title"`
	Length        int    `json:"length"`
	OptimalLength bool   `json:"optimal_length"`
}

func (*TitleDetails) CheckName() string { return CheckTitleTags }

type MetaDescriptionDetails struct {
	Description   string `json:"description"`
	Length        int    `json:"length"`
	Exists        bool   `json:"exists"`
	OptimalLength bool   `json:"optimal_length"`
}

func (*MetaDescriptionDetails) CheckName() string { return CheckMetaDescription }

type HeadingDetails struct {
	Headings        map[string][]string `json:"headings"`
	H1Count         int                 `json:"h1_count"`
	HasSingleH1     bool                `json:"has_single_h1"`
	HasH2Tags       bool                `json:"has_h2_tags"`
	ProperHierarchy bool                `json:"proper_hierarchy"`
}

func (*HeadingDetails) CheckName() string { return CheckHeadingStructure }

type ImageSample struct {
	Src          string `json:"src"`
	HasAlt       bool   `json:"has_alt"`
	AltText      string `json:"alt_text"`
	Loading      string `json:"loading"`
	IsLazyLoaded bool   `json:"is_lazy_loaded"`
}

type ImageDetails struct {
	TotalImages    int           `json:"total_images"`
	ImagesWithAlt  int           `json:"images_with_alt"`
	AltPercentage  float64       `json:"alt_percentage"`
	SampleAnalysis []ImageSample `json:"sample_analysis"`
}

func (*ImageDetails) CheckName() string { return CheckImageOptimization }

type LinkSample struct {
	Href  string `json:"href"`
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
}

type InternalLinkDetails struct {
	TotalInternalLinks int          `json:"total_internal_links"`
	SampleLinks        []LinkSample `json:"sample_links"`
}

func (*InternalLinkDetails) CheckName() string { return CheckInternalLinking }

type ContentDetails struct {
	WordCount            int     `json:"word_count"`
	SentenceCount        int     `json:"sentence_count"`
	AvgSentenceLength    float64 `json:"avg_sentence_length"`
	EstimatedReadingTime float64 `json:"estimated_reading_time"`
}

func (*ContentDetails) CheckName() string { return CheckContentAnalysis }

type DomainDetails struct {
	DomainAgeDays  int     `json:"domain_age_days"`
	DomainAgeYears float64 `json:"domain_age_years"`
	Registrar      string  `json:"registrar"`
}

func (*DomainDetails) CheckName() string { return CheckDomainAuthority }

type SocialDetails struct {
	SocialMetaTags map[string]*string `json:"social_meta_tags"`
	TagsPresent    int                `json:"tags_present"`
	TotalPossible  int                `json:"total_possible"`
}

func (*SocialDetails) CheckName() string { return CheckSocialSignals }

type BacklinkDetails struct {
	Note            string   `json:"note"`
	Recommendations []string `json:"recommendations"`
}

func (*BacklinkDetails) CheckName() string { return CheckBacklinkAnalysis }

type NavigationDetails struct {
	NavigationElements int          `json:"navigation_elements"`
	NavigationLinks    int          `json:"navigation_links"`
	SampleNavLinks     []LinkSample `json:"sample_nav_links"`
}

func (*NavigationDetails) CheckName() string { return CheckNavigation }

type AccessibilityDetails struct {
	ImagesWithAlt      int     `json:"images_with_alt"`
	TotalImages        int     `json:"total_images"`
	FormLabels         int     `json:"form_labels"`
	TotalInputs        int     `json:"total_inputs"`
	AriaLabels         int     `json:"aria_labels"`
	HeadingStructure   bool    `json:"heading_structure"`
	SkipLinks          int     `json:"skip_links"`
	AccessibilityScore float64 `json:"accessibility_score"`
}

func (*AccessibilityDetails) CheckName() string { return CheckAccessibility }

type ResponsiveDetails struct {
	HasViewportMeta      bool    `json:"has_viewport_meta"`
	ViewportContent      *string `json:"viewport_content"`
	CSSMediaQueriesFound int     `json:"css_media_queries_found"`
}

func (*ResponsiveDetails) CheckName() string { return CheckResponsiveDesign }

type SecurityHeadersDetails struct {
	SecurityHeaders map[string]*string `json:"security_headers"`
	HeadersPresent  int                `json:"headers_present"`
	TotalPossible   int                `json:"total_possible"`
	SecurityScore   float64            `json:"security_score"`
}

func (*SecurityHeadersDetails) CheckName() string { return CheckSecurityHeaders }

type PerformanceDetails struct {
	GzipCompression    bool    `json:"gzip_compression"`
	CacheControl       bool    `json:"cache_control"`
	ETag               bool    `json:"etag"`
	LastModified       bool    `json:"last_modified"`
	ContentLength      *string `json:"content_length"`
	ServerResponseTime float64 `json:"server_response_time"`
	LazyLoadingImages  int     `json:"lazy_loading_images"`
	CDNUsage           bool    `json:"cdn_usage"`
	PerformanceScore   int     `json:"performance_score"`
}

func (*PerformanceDetails) CheckName() string { return CheckPerformanceEnhancements }

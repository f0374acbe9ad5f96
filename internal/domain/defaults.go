package domain

func DefaultSettings() SiteSettings {
	return SiteSettings{
		PrimaryColor:    "#0ea5e9",
		Theme:           ThemeLight,
		SiteName:        "PhishDetect AI",
		MetaDescription: "Secure your inbox with real-time AI phishing detection.",
	}
}

// SeedPosts is the blog content shown before any post has been written.
func SeedPosts() []BlogPost {
	return []BlogPost{
		{
			ID:       "1",
			Title:    "Deconstructing the 2024 AI-Phishing Surge",
			Excerpt:  "Deep dive into how attackers are using Large Language Models to bypass traditional keyword-based filters.",
			Content:  "Forensic analysis shows a 300% increase in perfectly written phishing lures...",
			Author:   "Dr. Sarah Chen",
			Date:     "Oct 15, 2024",
			Category: "Cyber Forensic",
			Image:    "https://picsum.photos/seed/cyber/800/400",
		},
		{
			ID:       "2",
			Title:    "DMARC: The First Line of Defense",
			Excerpt:  "Understanding why domain alignment is critical for modern enterprise email security policies.",
			Content:  "Full content regarding protocol implementation...",
			Author:   "James Wilson",
			Date:     "Oct 10, 2024",
			Category: "Protocols",
			Image:    "https://picsum.photos/seed/security/800/400",
		},
	}
}

package console

import "phishdetect/internal/domain"

type Dashboard struct {
	Posts          int `json:"posts"`
	Messages       int `json:"messages"`
	UnreadMessages int `json:"unreadMessages"`
	Scans          int `json:"scans"`
	Dangerous      int `json:"dangerous"`
	Suspicious     int `json:"suspicious"`
	SecurityScore  int `json:"securityScore"`
	// RecentScans holds the newest scans, at most five.
	RecentScans []domain.ScanResult `json:"recentScans"`
}

type Profile struct {
	Email        string              `json:"email"`
	Scans        []domain.ScanResult `json:"scans"`
	Dangerous    int                 `json:"dangerous"`
	Suspicious   int                 `json:"suspicious"`
	SafetyRating int                 `json:"safetyRating"`
}

const recentScans = 5

// Dashboard summarizes every scan across all users.
func (s *Service) Dashboard() Dashboard {
	scans := s.store.Scans()
	msgs := s.store.Messages()
	d := Dashboard{
		Posts:    len(s.store.Posts()),
		Messages: len(msgs),
		Scans:    len(scans),
	}
	for _, m := range msgs {
		if !m.IsRead {
			d.UnreadMessages++
		}
	}
	d.Dangerous, d.Suspicious = countRisky(scans)
	d.SecurityScore = score(len(scans), d.Dangerous, d.Suspicious, 10, 5)
	d.RecentScans = scans[:min(recentScans, len(scans))]
	return d
}

// Profile summarizes the signed-in user's scans. ok is false without a session.
func (s *Service) Profile() (p Profile, ok bool) {
	sess := s.store.Session()
	if !sess.Authenticated || sess.User == nil {
		return Profile{}, false
	}
	p.Email = sess.User.Email
	p.Scans = []domain.ScanResult{}
	for _, sc := range s.store.Scans() {
		if sc.UserEmail == p.Email {
			p.Scans = append(p.Scans, sc)
		}
	}
	p.Dangerous, p.Suspicious = countRisky(p.Scans)
	p.SafetyRating = score(len(p.Scans), p.Dangerous, p.Suspicious, 15, 5)
	return p, true
}

func countRisky(scans []domain.ScanResult) (dangerous, suspicious int) {
	for _, sc := range scans {
		switch sc.Verdict {
		case domain.VerdictDangerous:
			dangerous++
		case domain.VerdictSuspicious:
			suspicious++
		}
	}
	return dangerous, suspicious
}

// score starts from 100 and subtracts a weight per risky scan, floored at 0.
func score(total, dangerous, suspicious, dangerWeight, suspectWeight int) int {
	if total == 0 {
		return 100
	}
	return max(0, 100-dangerous*dangerWeight-suspicious*suspectWeight)
}
